package doctags_test

import (
	"testing"

	"github.com/adrianliechti/wingman-docling/pkg/doctags"

	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "trailing garbage",
			input:    "<doctag><text>a</text></doctag><|end_of_text|>junk",
			expected: "<doctag><text>a</text></doctag>",
		},
		{
			name:     "first marker wins",
			input:    "<doctag>a</doctag>b</doctag>",
			expected: "<doctag>a</doctag>",
		},
		{
			name:     "no marker",
			input:    "<doctag><text>cut off",
			expected: "<doctag><text>cut off",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			once := doctags.Truncate(tc.input)
			require.Equal(t, tc.expected, once)

			require.Equal(t, once, doctags.Truncate(once))
		})
	}
}

func TestParseElements(t *testing.T) {
	input := "<doctag><title><loc_10><loc_20><loc_490><loc_40>Annual Report</title>" +
		"<section_header_level_1><loc_10><loc_50><loc_200><loc_60>Summary</section_header_level_1>" +
		"<text><loc_10><loc_70><loc_490><loc_90>Revenue grew.</text>" +
		"<unordered_list><list_item><loc_10><loc_100><loc_200><loc_110>one</list_item><list_item>two</list_item></unordered_list>" +
		"<code><loc_1><loc_2><loc_3><loc_4><_Python_>print(1)</code>" +
		"</doctag>"

	root, err := doctags.Parse(input)
	require.NoError(t, err)

	children := root.Children()
	require.Len(t, children, 5)

	require.Equal(t, "title", children[0].Name)
	require.Equal(t, "Annual Report", children[0].Text())
	require.Equal(t, &doctags.Location{Left: 10, Top: 20, Right: 490, Bottom: 40}, children[0].Location())

	level, ok := doctags.SectionLevel(children[1].Name)
	require.True(t, ok)
	require.Equal(t, 1, level)

	items := children[3].Children()
	require.Len(t, items, 2)
	require.Equal(t, "two", items[1].Text())
	require.Nil(t, items[1].Location())

	require.Equal(t, []string{"loc_1", "loc_2", "loc_3", "loc_4", "_Python_"}, children[4].Atoms())
	require.Equal(t, "print(1)", children[4].Text())
}

func TestParseBareText(t *testing.T) {
	root, err := doctags.Parse("<doctag>hello</doctag>")
	require.NoError(t, err)

	require.Equal(t, "hello", root.Text())
	require.Empty(t, root.Children())
}

func TestParseUnterminated(t *testing.T) {
	root, err := doctags.Parse("<doctag><text><loc_1><loc_2><loc_3><loc_4>cut")
	require.NoError(t, err)

	require.Len(t, root.Children(), 1)
	require.Equal(t, "cut", root.Children()[0].Text())
}

func TestParseIgnoresTextAfterClose(t *testing.T) {
	root, err := doctags.Parse("<doctag><text>a</text></doctag><text>b</text>")
	require.NoError(t, err)

	require.Len(t, root.Children(), 1)
}

func TestParseMalformed(t *testing.T) {
	for _, input := range []string{
		"<doctag><text>a</title></doctag>",
		"<doctag><doctag>a</doctag>",
		"<doctag>a</text></doctag>",
	} {
		_, err := doctags.Parse(input)
		require.ErrorIs(t, err, doctags.ErrMalformed, input)
	}
}

func TestParseClosesOpenElements(t *testing.T) {
	root, err := doctags.Parse("<doctag><text>a<list_item>b</doctag>")
	require.NoError(t, err)

	text := root.Children()[0]
	require.Equal(t, "text", text.Name)
	require.Equal(t, "list_item", text.Children()[0].Name)
	require.Equal(t, "b", text.Children()[0].Text())
}

func TestParseLiteralAngleBrackets(t *testing.T) {
	root, err := doctags.Parse("<doctag><text>a < b and c<d> e</text></doctag>")
	require.NoError(t, err)

	// <d> is not an element and is kept as an atom
	require.Equal(t, "a < b and c e", root.Children()[0].Text())
}

func TestParseTable(t *testing.T) {
	root, err := doctags.Parse("<doctag><otsl><loc_1><loc_2><loc_3><loc_4>" +
		"<ched>Name<ched>Q1<lcel><nl>" +
		"<rhed>A<fcel>1<fcel>2<nl>" +
		"<ucel><ecel><fcel>3<nl>" +
		"<caption>Figures</caption></otsl></doctag>")
	require.NoError(t, err)

	node := root.Children()[0]
	require.Equal(t, "Figures", node.Child("caption").Text())

	table := doctags.ParseTable(node)

	require.Equal(t, 3, table.NumRows)
	require.Equal(t, 3, table.NumCols)

	require.Equal(t, doctags.TableCell{Text: "Q1", StartRow: 0, EndRow: 1, StartCol: 1, EndCol: 3, ColumnHeader: true}, table.Cells[1])
	require.Equal(t, doctags.TableCell{Text: "A", StartRow: 1, EndRow: 3, StartCol: 0, EndCol: 1, RowHeader: true}, table.Cells[2])

	require.Equal(t, [][]string{
		{"Name", "Q1", "Q1"},
		{"A", "1", "2"},
		{"A", "", "3"},
	}, table.Grid())
}
