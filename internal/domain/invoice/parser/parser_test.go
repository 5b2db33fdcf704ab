package parser

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OsaidB/Invoices-Convertor/internal/domain/invoice"
	"github.com/OsaidB/Invoices-Convertor/internal/domain/invoice/reconcile"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	return New(DefaultConfig(), nil)
}

func TestNormalize(t *testing.T) {
	t.Run("strips kashida and trims", func(t *testing.T) {
		assert.Equal(t, "السعر", Normalize("  الـسـعـر  "))
	})

	t.Run("applies NFKC compatibility composition", func(t *testing.T) {
		// U+FB01 (fi ligature) decomposes to "fi" under NFKC.
		assert.Equal(t, "fi", Normalize("ﬁ"))
	})

	t.Run("idempotent", func(t *testing.T) {
		inputs := []string{"", "  عمود40  ", "الـسـعـر", "widget desc", "١٢٣", "ﬁxـy"}
		for _, s := range inputs {
			once := Normalize(s)
			assert.Equal(t, once, Normalize(once), "normalize(normalize(%q))", s)
		}
	})
}

func TestParser_Parse_SingleItem(t *testing.T) {
	p := newTestParser(t)

	inv, mismatches, err := p.Parse([]string{
		"1/2/2024 10:00:00",
		"السعر",
		"widget desc",
		"10.00",
		"10.00",
		"المجموع 10.00",
	})
	require.NoError(t, err)
	require.Len(t, inv.Items, 1)

	item := inv.Items[0]
	assert.Equal(t, "widget desc", item.Description)
	assert.True(t, item.Quantity.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "10.00", item.UnitPrice.StringFixed(2))
	assert.Equal(t, "10.00", item.TotalPrice.StringFixed(2))
	assert.Nil(t, item.MaterialID)

	require.NotNil(t, inv.Total)
	assert.Equal(t, "10.00", inv.Total.StringFixed(2))
	assert.True(t, inv.TotalMatch)
	assert.Empty(t, mismatches)

	// Day/month order of the source is preserved: 1/2/2024 is Feb 1st.
	require.NotNil(t, inv.Date)
	assert.Equal(t, time.Date(2024, time.February, 1, 10, 0, 0, 0, time.UTC), time.Time(*inv.Date))

	// No net line printed: net total defaults to the grand total.
	require.NotNil(t, inv.NetTotal)
	assert.Equal(t, "10.00", inv.NetTotal.StringFixed(2))

	assert.Equal(t, invoice.DefaultWorksite, inv.WorksiteName)
	assert.False(t, inv.Confirmed)
}

func TestParser_Parse_MismatchAndRepair(t *testing.T) {
	p := newTestParser(t)

	inv, _, err := p.Parse([]string{
		"1/2/2024 10:00:00",
		"السعر",
		"widget desc",
		"10.00",
		"20.00",
		"المجموع 20.00",
	})
	require.NoError(t, err)
	require.Len(t, inv.Items, 1)
	assert.False(t, inv.TotalMatch, "1 x 10.00 cannot explain a printed total of 20.00")

	res := reconcile.Repair(inv)
	assert.True(t, res.Match)
	assert.True(t, inv.TotalMatch)
	assert.Equal(t, "2.00", inv.Items[0].Quantity.StringFixed(2))

	// Repairing a matched record is a no-op.
	before := inv.Items[0].Quantity
	res = reconcile.Repair(inv)
	assert.True(t, res.Match)
	assert.True(t, inv.Items[0].Quantity.Equal(before))
}

func TestParser_QuantityDisambiguation(t *testing.T) {
	p := newTestParser(t)

	t.Run("standalone quantity line wins", func(t *testing.T) {
		inv, _, err := p.Parse([]string{
			"السعر",
			"3",
			"عمود40",
			"5.00",
			"15.00",
		})
		require.NoError(t, err)
		require.Len(t, inv.Items, 1)
		assert.Equal(t, "3", inv.Items[0].Quantity.String())
		// The stem rule never runs, so the embedded digits survive.
		assert.Equal(t, "عمود40", inv.Items[0].Description)
	})

	t.Run("keyword stem suffix", func(t *testing.T) {
		inv, _, err := p.Parse([]string{
			"السعر",
			"عمود40",
			"5.00",
			"200.00",
		})
		require.NoError(t, err)
		require.Len(t, inv.Items, 1)
		assert.Equal(t, "40", inv.Items[0].Quantity.String())
		assert.Equal(t, "عمود", inv.Items[0].Description)
	})

	t.Run("trailing digits", func(t *testing.T) {
		inv, _, err := p.Parse([]string{
			"السعر",
			"برغي حديد 12",
			"2.00",
			"24.00",
		})
		require.NoError(t, err)
		require.Len(t, inv.Items, 1)
		assert.Equal(t, "12", inv.Items[0].Quantity.String())
		assert.Equal(t, "برغي حديد", inv.Items[0].Description)
	})

	t.Run("kilo guard suppresses trailing digits", func(t *testing.T) {
		inv, _, err := p.Parse([]string{
			"السعر",
			"سمنت كيلو5",
			"10.00",
			"10.00",
		})
		require.NoError(t, err)
		require.Len(t, inv.Items, 1)
		// The known typo is corrected first, then the weight spec blocks the
		// trailing-digit rule.
		assert.Equal(t, "سمنت كيلو25", inv.Items[0].Description)
		assert.Equal(t, "1", inv.Items[0].Quantity.String())
	})

	t.Run("default quantity is one", func(t *testing.T) {
		inv, _, err := p.Parse([]string{
			"السعر",
			"مواد بناء",
			"7.50",
			"7.50",
		})
		require.NoError(t, err)
		require.Len(t, inv.Items, 1)
		assert.Equal(t, "1", inv.Items[0].Quantity.String())
	})
}

func TestParser_DescriptionCleanup(t *testing.T) {
	p := newTestParser(t)

	t.Run("strips leading row number", func(t *testing.T) {
		inv, _, err := p.Parse([]string{
			"السعر",
			"4 مواد عامة",
			"3.00",
			"3.00",
		})
		require.NoError(t, err)
		require.Len(t, inv.Items, 1)
		assert.Equal(t, "مواد عامة", inv.Items[0].Description)
	})

	t.Run("strips trailing filler one", func(t *testing.T) {
		// Quantity comes from a standalone line, so the trailing "1" left on
		// the description is filler, not a quantity.
		inv, _, err := p.Parse([]string{
			"السعر",
			"5",
			"مواد عامة 1",
			"3.00",
			"15.00",
		})
		require.NoError(t, err)
		require.Len(t, inv.Items, 1)
		assert.Equal(t, "مواد عامة", inv.Items[0].Description)
		assert.Equal(t, "5", inv.Items[0].Quantity.String())
	})
}

func TestParser_SkipFilter(t *testing.T) {
	p := newTestParser(t)

	t.Run("skip word anywhere in a line excludes it", func(t *testing.T) {
		inv, _, err := p.Parse([]string{
			"السعر",
			"شكرا لتعاملكم معنا",
			"اسلاك نحاس",
			"4.00",
			"8.00",
		})
		require.NoError(t, err)
		require.Len(t, inv.Items, 1)
		assert.Equal(t, "اسلاك نحاس", inv.Items[0].Description)
	})

	t.Run("group of only skip lines forms no item", func(t *testing.T) {
		inv, _, err := p.Parse([]string{
			"السعر",
			"ILS شكرا",
			"100.00",
			"100.00",
		})
		require.NoError(t, err)
		assert.Empty(t, inv.Items)
	})

	t.Run("grouped running-balance amount is noise", func(t *testing.T) {
		inv, _, err := p.Parse([]string{
			"السعر",
			"1,250.00",
			"عوازل مطاط",
			"6.00",
			"12.00",
		})
		require.NoError(t, err)
		require.Len(t, inv.Items, 1)
		assert.Equal(t, "عوازل مطاط", inv.Items[0].Description)
		assert.Equal(t, "6.00", inv.Items[0].UnitPrice.StringFixed(2))
	})

	t.Run("short normalized description is discarded", func(t *testing.T) {
		inv, _, err := p.Parse([]string{
			"السعر",
			"اب",
			"2.00",
			"2.00",
		})
		require.NoError(t, err)
		assert.Empty(t, inv.Items)
	})
}

func TestParser_Segmentation(t *testing.T) {
	p := newTestParser(t)

	t.Run("items start after the last price header", func(t *testing.T) {
		inv, _, err := p.Parse([]string{
			"جرافة صغيرة", // before the header block: never an item
			"الكمية",
			"السعر",
			"قضبان فولاذ",
			"9.00",
			"18.00",
		})
		require.NoError(t, err)
		require.Len(t, inv.Items, 1)
		assert.Equal(t, "قضبان فولاذ", inv.Items[0].Description)
	})

	t.Run("dangling price at end of input emits nothing", func(t *testing.T) {
		inv, _, err := p.Parse([]string{
			"السعر",
			"مسامير",
			"5.00",
		})
		require.NoError(t, err)
		assert.Empty(t, inv.Items)
	})

	t.Run("unparsable price pair is a recoverable skip", func(t *testing.T) {
		inv, _, err := p.Parse([]string{
			"السعر",
			"خردة معدن",
			"5.00",
			"شكرا",
			"حبال قنب",
			"2.00",
			"4.00",
		})
		require.NoError(t, err)
		require.Len(t, inv.Items, 1)
		assert.Equal(t, "حبال قنب", inv.Items[0].Description)
	})

	t.Run("multiple items in order", func(t *testing.T) {
		inv, _, err := p.Parse([]string{
			"السعر",
			"دهان ابيض",
			"30.00",
			"60.00",
			"فرشاة دهان",
			"10.00",
			"10.00",
			"المجموع 70.00",
		})
		require.NoError(t, err)
		require.Len(t, inv.Items, 2)
		assert.Equal(t, "دهان ابيض", inv.Items[0].Description)
		assert.Equal(t, "فرشاة دهان", inv.Items[1].Description)
		assert.False(t, inv.TotalMatch, "1 x 30.00 + 1 x 10.00 != 70.00")

		res := reconcile.Repair(inv)
		assert.True(t, res.Match)
		assert.Equal(t, "2.00", inv.Items[0].Quantity.StringFixed(2))
		assert.Equal(t, "1.00", inv.Items[1].Quantity.StringFixed(2))
	})
}

func TestParser_Fields(t *testing.T) {
	p := newTestParser(t)

	t.Run("worksite from last remarks line", func(t *testing.T) {
		inv, _, err := p.Parse([]string{
			"ملاحظات",
			"السعر",
			"رمل ناعم",
			"3.00",
			"3.00",
			"ملاحظات موقع المدرسة",
		})
		require.NoError(t, err)
		assert.Equal(t, "موقع المدرسة", inv.WorksiteName)
	})

	t.Run("no remarks line defaults to other", func(t *testing.T) {
		inv, _, err := p.Parse([]string{"السعر", "رمل ناعم", "3.00", "3.00"})
		require.NoError(t, err)
		assert.Equal(t, "other", inv.WorksiteName)
	})

	t.Run("explicit net total", func(t *testing.T) {
		inv, _, err := p.Parse([]string{
			"السعر",
			"حصى مغسول",
			"8.00",
			"8.00",
			"المجموع 8.00",
			"الصافي 7.50",
		})
		require.NoError(t, err)
		require.NotNil(t, inv.NetTotal)
		assert.Equal(t, "7.50", inv.NetTotal.StringFixed(2))
		require.NotNil(t, inv.Total)
		assert.Equal(t, "8.00", inv.Total.StringFixed(2))
	})

	t.Run("only first total line is honored", func(t *testing.T) {
		inv, _, err := p.Parse([]string{
			"السعر",
			"طوب احمر",
			"2.00",
			"2.00",
			"المجموع 2.00",
			"المجموع 999.99",
		})
		require.NoError(t, err)
		require.NotNil(t, inv.Total)
		assert.Equal(t, "2.00", inv.Total.StringFixed(2))
		assert.True(t, inv.TotalMatch)
	})

	t.Run("thousands separators in totals", func(t *testing.T) {
		inv, _, err := p.Parse([]string{
			"السعر",
			"حديد تسليح",
			"1087.00",
			"2,174.00",
			"المجموع 2,174.00",
		})
		require.NoError(t, err)
		require.NotNil(t, inv.Total)
		assert.Equal(t, "2174.00", inv.Total.StringFixed(2))
		require.Len(t, inv.Items, 1)
		assert.Equal(t, "2174.00", inv.Items[0].TotalPrice.StringFixed(2))
	})

	t.Run("missing total forces mismatch", func(t *testing.T) {
		inv, _, err := p.Parse([]string{"السعر", "جبس ابيض", "4.00", "4.00"})
		require.NoError(t, err)
		assert.Nil(t, inv.Total)
		assert.False(t, inv.TotalMatch)
	})

	t.Run("missing date stays nil", func(t *testing.T) {
		inv, _, err := p.Parse([]string{"السعر", "جبس ابيض", "4.00", "4.00"})
		require.NoError(t, err)
		assert.Nil(t, inv.Date)
	})
}

func TestParser_EmptyDocument(t *testing.T) {
	p := newTestParser(t)
	_, _, err := p.Parse(nil)
	assert.ErrorIs(t, err, ErrNoLines)
}
