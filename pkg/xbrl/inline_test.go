package xbrl

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horiken1977/roic-sub001/pkg/fiscal"
)

const inlineHeader = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:ix="http://www.xbrl.org/2013/inlineXBRL"
  xmlns:xbrli="http://www.xbrl.org/2003/instance" xmlns:jppfs_cor="x" xmlns:jpdei_cor="y">
<head><title>header</title></head>
<body>
<div style="display:none"><ix:header><ix:resources>
  <xbrli:context id="CurrentYearDuration"><xbrli:entity><xbrli:identifier scheme="http://disclosure.edinet-fsa.go.jp">E00001-000</xbrli:identifier></xbrli:entity>
    <xbrli:period><xbrli:startDate>2023-04-01</xbrli:startDate><xbrli:endDate>2024-03-31</xbrli:endDate></xbrli:period></xbrli:context>
  <xbrli:context id="CurrentYearInstant"><xbrli:entity><xbrli:identifier scheme="http://disclosure.edinet-fsa.go.jp">E00001-000</xbrli:identifier></xbrli:entity>
    <xbrli:period><xbrli:instant>2024-03-31</xbrli:instant></xbrli:period></xbrli:context>
  <xbrli:context id="CurrentYearInstant_NonConsolidatedMember"><xbrli:entity><xbrli:identifier scheme="http://disclosure.edinet-fsa.go.jp">E00001-000</xbrli:identifier>
    <xbrli:segment><xbrldi:explicitMember dimension="jppfs_cor:ConsolidatedOrNonConsolidatedAxis">jppfs_cor:NonConsolidatedMember</xbrldi:explicitMember></xbrli:segment></xbrli:entity>
    <xbrli:period><xbrli:instant>2024-03-31</xbrli:instant></xbrli:period></xbrli:context>
</ix:resources></ix:header></div>
<p><ix:nonNumeric name="jpdei_cor:FilerNameInJapaneseDEI" contextRef="CurrentYearDuration">インライン <span>工業株式会社</span></ix:nonNumeric></p>
</body></html>`

const inlineStatements = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:ix="http://www.xbrl.org/2013/inlineXBRL">
<body><table>
<tr><td>売上高</td><td><ix:nonFraction name="jppfs_cor:NetSales" contextRef="CurrentYearDuration" unitRef="JPY" decimals="-6" scale="6" format="ixt:numdotdecimal">1,234,567</ix:nonFraction></td></tr>
<tr><td>営業損失</td><td><ix:nonFraction name="jppfs_cor:OperatingIncome" contextRef="CurrentYearDuration" unitRef="JPY" decimals="-6" scale="6" sign="-" format="ixt:numdotdecimal">△12,000</ix:nonFraction></td></tr>
<tr><td>社債</td><td><ix:nonFraction name="jppfs_cor:BondsPayable" contextRef="CurrentYearInstant" unitRef="JPY" decimals="-6" scale="6" format="ixt:zerodash">－</ix:nonFraction></td></tr>
<tr><td>総資産</td><td><ix:nonFraction name="jppfs_cor:Assets" contextRef="CurrentYearInstant_NonConsolidatedMember" unitRef="JPY" decimals="-6" scale="6" format="ixt:numdotdecimal">9,000</ix:nonFraction></td></tr>
<tr><td>のれん</td><td><ix:nonFraction name="jppfs_cor:Goodwill" contextRef="CurrentYearInstant" unitRef="JPY" xsi:nil="true"></ix:nonFraction></td></tr>
</table></body></html>`

func TestParseInline(t *testing.T) {
	inst, err := ParseDocument(inlineHeader + inlineStatements)
	require.NoError(t, err)

	require.Len(t, inst.Contexts, 3)
	assert.Equal(t, Duration, inst.Contexts["CurrentYearDuration"].Kind)
	assert.Equal(t, date("2024-03-31"), inst.Contexts["CurrentYearDuration"].EndDate)
	assert.Equal(t, Instant, inst.Contexts["CurrentYearInstant"].Kind)
	assert.False(t, inst.Contexts["CurrentYearInstant"].Dimensional)
	assert.True(t, inst.Contexts["CurrentYearInstant_NonConsolidatedMember"].Dimensional)

	tests := []struct {
		name    string
		context string
		want    string
	}{
		{"NetSales", "CurrentYearDuration", "1234567000000"},
		{"OperatingIncome", "CurrentYearDuration", "-12000000000"},
		{"BondsPayable", "CurrentYearInstant", "0"},
		{"Assets", "CurrentYearInstant_NonConsolidatedMember", "9000000000"},
		{"FilerNameInJapaneseDEI", "CurrentYearDuration", "インライン 工業株式会社"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := inst.Facts.InContext(tt.name, tt.context)
			require.True(t, ok)
			assert.Equal(t, tt.want, f.RawValue)
		})
	}

	goodwill, ok := inst.Facts.InContext("Goodwill", "CurrentYearInstant")
	require.True(t, ok)
	assert.True(t, goodwill.Nil)
	assert.Equal(t, "jppfs_cor", goodwill.Namespace)
}

func TestParseInlineResolvesContexts(t *testing.T) {
	inst, err := ParseDocument(inlineHeader + inlineStatements)
	require.NoError(t, err)

	year, err := fiscal.New(2024, 3)
	require.NoError(t, err)
	pair, err := ResolveContexts(inst.Contexts, year)
	require.NoError(t, err)
	assert.Equal(t, TargetContextPair{DurationContextID: "CurrentYearDuration", InstantContextID: "CurrentYearInstant"}, pair)
}

func TestInlineNumber(t *testing.T) {
	tests := []struct {
		raw      string
		format   string
		scale    string
		negative bool
		want     string
		ok       bool
	}{
		{"1,234", "ixt:numdotdecimal", "", false, "1234", true},
		{"1,234", "ixt:numdotdecimal", "3", false, "1234000", true},
		{"1.234,5", "ixt:numcommadecimal", "", false, "1234.5", true},
		{"12.5", "", "-2", false, "0.125", true},
		{"▲300", "ixt:numdotdecimal", "6", true, "-300000000", true},
		{"-", "ixt:zerodash", "6", false, "0", true},
		{"n/a", "ixt:numdotdecimal", "", false, "", false},
		{"10", "", "x", false, "", false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s/%s", tt.raw, tt.format, tt.scale), func(t *testing.T) {
			got, ok := inlineNumber(tt.raw, tt.format, tt.scale, tt.negative)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsInline(t *testing.T) {
	assert.True(t, IsInline(inlineHeader))
	assert.False(t, IsInline(sampleInstance))
	assert.False(t, IsInline(strings.ReplaceAll(inlineStatements, InlineNamespace, "")))
}
