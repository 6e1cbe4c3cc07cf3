package orders

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenario1 = "Order Date and Time,Order Value,Commission Fee\n2023-01-01 10:00,100,10\n2023-01-01 14:00,50,5\n2023-01-02 09:00,20,2"

func TestParseRowCountAndWidth(t *testing.T) {
	ds, err := Parse(scenario1)
	require.NoError(t, err)

	assert.Equal(t, []string{ColPlacedAt, ColOrderValue, ColCommissionFee}, ds.Header)
	require.Len(t, ds.Rows, 3)
	for _, r := range ds.Rows {
		assert.Equal(t, len(ds.Header), r.Len())
	}
	assert.Zero(t, ds.Ragged)

	v, ok := ds.Rows[1].Get(ColOrderValue)
	assert.True(t, ok)
	assert.Equal(t, "50", v)
	assert.Equal(t, 3, ds.Rows[1].Line)
}

func TestParseManyRows(t *testing.T) {
	var b strings.Builder
	b.WriteString("a,b,c\n")
	for i := 0; i < 250; i++ {
		fmt.Fprintf(&b, "%d,%d,%d\n", i, i*2, i*3)
	}
	ds, err := Parse(b.String())
	require.NoError(t, err)
	assert.Len(t, ds.Rows, 250)
}

func TestParseTrimsAndSkipsBlankLines(t *testing.T) {
	ds, err := Parse("  a , b \r\n1,2\r\n\r\n3,4\n\n\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ds.Header)
	require.Len(t, ds.Rows, 2)

	v, ok := ds.Rows[0].Get("b")
	assert.True(t, ok)
	assert.Equal(t, "2", v, "trailing carriage return is dropped")
	assert.Equal(t, 4, ds.Rows[1].Line)
}

func TestParseLineNumbersCountLeadingBlankLines(t *testing.T) {
	ds, err := Parse("\n\r\nOrder Date and Time,Order Value\n2023-01-01 10:00,x\n")
	require.NoError(t, err)
	require.Len(t, ds.Rows, 1)
	assert.Equal(t, 4, ds.Rows[0].Line)

	_, _, err = PolicyAbort.ResolveValue(Decode(ds.Rows[0]), OrderValue)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 4, pe.Line)
}

func TestParseRaggedRows(t *testing.T) {
	ds, err := Parse("a,b,c\n1,2\n1,2,3,4\n")
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Ragged)

	_, ok := ds.Rows[0].Get("c")
	assert.False(t, ok, "short row leaves trailing column absent")

	assert.Equal(t, []string{"1", "2", "3"}, ds.Rows[1].Values(), "extra values are dropped")
}

func TestParseQuotedCommaIsNotSpecial(t *testing.T) {
	ds, err := Parse("a,b\n\"x,y\",z\n")
	require.NoError(t, err)
	v, _ := ds.Rows[0].Get("b")
	assert.Equal(t, "y\"", v)
}

func TestParseEmpty(t *testing.T) {
	for _, in := range []string{"", "   \n\n", "a,b,c\n\n"} {
		_, err := Parse(in)
		var pe *ParseError
		require.True(t, errors.As(err, &pe), "input %q", in)
		assert.Equal(t, ParseEmpty, pe.Kind)
	}
}

func TestRequireColumns(t *testing.T) {
	ds, err := Parse(scenario1)
	require.NoError(t, err)

	require.NoError(t, ds.RequireColumns(ColPlacedAt, ColOrderValue))

	err = ds.RequireColumns(ColOrderValue, ColPaymentMethod, ColDeliveryFee)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ParseSchema, pe.Kind)
	assert.Equal(t, "Payment Method, Delivery Fee", pe.Column)
}

func TestDecode(t *testing.T) {
	ds, err := Parse("Order Date and Time,Order Value,Commission Fee,Delivery Fee,Payment Method\n" +
		"2024-02-01 01:11:52,1914,150,0, Credit Card \n" +
		"2024-02-02T08:00:00Z,abc,,30.0,Cash\n" +
		"bad-date,10,1,20,Cash\n")
	require.NoError(t, err)
	list := DecodeAll(ds)
	require.Len(t, list, 3)

	good := list[0]
	assert.True(t, good.PlacedValid)
	assert.Equal(t, "2024-02-01", good.Date)
	assert.Equal(t, "1914", good.OrderValue.Decimal.String())
	assert.True(t, good.DeliveryFee.Valid)
	assert.Equal(t, "Credit Card", good.PaymentMethod)
	assert.Empty(t, good.Issues)

	partial := list[1]
	assert.True(t, partial.PlacedValid)
	assert.Equal(t, "2024-02-02", partial.Date)
	assert.False(t, partial.OrderValue.Valid)
	assert.False(t, partial.CommissionFee.Valid)
	require.Len(t, partial.Issues, 2)
	assert.Equal(t, FieldInvalid, partial.Issue(ColOrderValue).Kind)
	assert.Equal(t, "abc", partial.Issue(ColOrderValue).Raw)
	assert.Equal(t, FieldMissing, partial.Issue(ColCommissionFee).Kind)

	badDate := list[2]
	assert.False(t, badDate.PlacedValid)
	assert.Equal(t, "bad-date", badDate.Date)
	key, fe := badDate.DateKey()
	require.NotNil(t, fe)
	assert.Empty(t, key)
	assert.Equal(t, FieldInvalid, fe.Kind)
	assert.Equal(t, "bad-date", fe.Raw)
	assert.Equal(t, 4, fe.Line)

	key, fe = good.DateKey()
	assert.Nil(t, fe)
	assert.Equal(t, "2024-02-01", key)
}

func TestDecodeUndeclaredColumnIsNotAnIssue(t *testing.T) {
	ds, err := Parse(scenario1)
	require.NoError(t, err)
	o := Decode(ds.Rows[0])
	assert.Empty(t, o.Issues)

	_, fe := o.Value(DeliveryFee)
	require.NotNil(t, fe)
	assert.Equal(t, FieldMissing, fe.Kind)
}

func TestPolicyResolveValue(t *testing.T) {
	ds, err := Parse("Order Date and Time,Order Value\n2023-01-01 10:00,\n")
	require.NoError(t, err)
	o := Decode(ds.Rows[0])

	_, outcome, err := PolicySkip.ResolveValue(o, OrderValue)
	require.NoError(t, err)
	assert.Equal(t, Skipped, outcome)

	v, outcome, err := PolicyZero.ResolveValue(o, OrderValue)
	require.NoError(t, err)
	assert.Equal(t, Substituted, outcome)
	assert.True(t, v.IsZero())

	_, _, err = PolicyAbort.ResolveValue(o, OrderValue)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ParseField, pe.Kind)
	assert.Equal(t, 2, pe.Line)
	assert.Equal(t, ColOrderValue, pe.Column)

	var fe *FieldError
	assert.True(t, errors.As(err, &fe))
}

func TestPolicyResolveDateZeroStillSkips(t *testing.T) {
	ds, err := Parse("Order Date and Time,Order Value\n,5\n")
	require.NoError(t, err)
	o := Decode(ds.Rows[0])

	_, outcome, err := PolicyZero.ResolveDate(o)
	require.NoError(t, err)
	assert.Equal(t, Skipped, outcome)

	_, _, err = PolicyAbort.ResolveDate(o)
	assert.Error(t, err)
}

func TestPolicyResolveDateInvalidTimestamp(t *testing.T) {
	ds, err := Parse("Order Date and Time,Order Value\n2023-99-99 10:00,5\n")
	require.NoError(t, err)
	o := Decode(ds.Rows[0])

	for _, p := range []Policy{PolicySkip, PolicyZero} {
		key, outcome, err := p.ResolveDate(o)
		require.NoError(t, err, p)
		assert.Equal(t, Skipped, outcome, p)
		assert.Empty(t, key)
	}

	_, _, err = PolicyAbort.ResolveDate(o)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ParseField, pe.Kind)
	assert.Equal(t, 2, pe.Line)
	assert.Equal(t, ColPlacedAt, pe.Column)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy(" ZERO ")
	require.NoError(t, err)
	assert.Equal(t, PolicyZero, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicySkip, p)

	_, err = ParsePolicy("ignore")
	assert.Error(t, err)
}

func TestSortByPlacedAtStable(t *testing.T) {
	ds, err := Parse("Order Date and Time,Order Value\n" +
		"2023-01-02 09:00,1\n" +
		"nonsense,2\n" +
		"2023-01-01 10:00,3\n" +
		"2023-01-02 09:00,4\n" +
		"also bad,5\n" +
		"2023-01-01 10:00,6\n")
	require.NoError(t, err)
	in := DecodeAll(ds)

	sorted := SortByPlacedAt(in)

	var got []string
	for _, o := range sorted {
		got = append(got, o.OrderValue.Decimal.String())
	}
	assert.Equal(t, []string{"3", "6", "1", "4", "2", "5"}, got)

	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].PlacedValid && sorted[i].PlacedValid {
			assert.False(t, sorted[i].PlacedAt.Before(sorted[i-1].PlacedAt))
		}
	}

	assert.Equal(t, "1", in[0].OrderValue.Decimal.String(), "input is not modified")
}
