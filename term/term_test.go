package term_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/aspskema/term"
)

func TestString(t *testing.T) {
	cases := []struct {
		in   term.Term
		want string
	}{
		{term.Number(-3), "-3"},
		{term.String(`say "hi"`), `"say \"hi\""`},
		{term.Function("a"), "a"},
		{term.Function("p", term.Number(1), term.String("x")), `p(1,"x")`},
		{term.Tuple(term.Number(1)), "(1,)"},
		{term.Tuple(term.Number(1), term.Function("b")), "(1,b)"},
		{term.Tuple(), "()"},
		{term.Variable("X0"), "X0"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.in.String())
	}
}

func TestParse(t *testing.T) {
	for _, s := range []string{"-3", `"a\"b"`, "a", `p(1,"x")`, "(1,)", "(1,b)", "()", "date(2020,1,f(g))", "X0"} {
		got, err := term.Parse(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, got.String())
	}
}

func TestParse_Parenthesized(t *testing.T) {
	got, err := term.Parse("(a)")
	require.NoError(t, err)
	assert.Equal(t, term.TypeFunction, got.Type())
	assert.Equal(t, "a", got.String())
}

func TestParse_Errors(t *testing.T) {
	for _, s := range []string{"p(", "p(1,,2)", "1 2", `"open`, "4294967296", "#"} {
		_, err := term.Parse(s)
		var se *term.SyntaxError
		require.ErrorAs(t, err, &se, s)
	}
}

func TestParse_Comments(t *testing.T) {
	got, err := term.Parse("% line\n p(1) %* block *%")
	require.NoError(t, err)
	assert.Equal(t, "p/1", got.Signature())
}

func TestCompare(t *testing.T) {
	ts := []term.Term{
		term.Function("f", term.Number(1)),
		term.String("s"),
		term.Function("c"),
		term.Number(7),
		term.Number(-2),
		term.Function("b"),
	}
	sort.Slice(ts, func(i, j int) bool { return term.Compare(ts[i], ts[j]) < 0 })
	var got []string
	for _, x := range ts {
		got = append(got, x.String())
	}
	assert.Equal(t, []string{"-2", "7", "b", "c", `"s"`, "f(1)"}, got)

	assert.True(t, term.Equal(term.MustParse("p(1,(a,))"), term.MustParse("p(1, (a,))")))
	assert.False(t, term.Equal(term.String("a"), term.Function("a")))
}

func TestIsGround(t *testing.T) {
	assert.True(t, term.MustParse("p(1,a)").IsGround())
	assert.False(t, term.MustParse("p(1,(X,))").IsGround())
}
