package pubmed

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticleDoc_Year(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		want string
	}{
		{
			name: "pub date year",
			xml:  `<A><Journal><PubDate><Year>2019</Year></PubDate></Journal><ArticleDate><Year>2018</Year></ArticleDate></A>`,
			want: "2019",
		},
		{
			name: "article date fallback",
			xml:  `<A><Journal><PubDate><Month>Jan</Month></PubDate></Journal><ArticleDate DateType="Electronic"><Year>2018</Year></ArticleDate></A>`,
			want: "2018",
		},
		{
			name: "medline date fallback",
			xml:  `<A><Journal><PubDate><MedlineDate>2017 Jan-Feb</MedlineDate></PubDate></Journal></A>`,
			want: "2017",
		},
		{
			name: "no date",
			xml:  `<A><Journal><Title>J</Title></Journal></A>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parseArticleDoc([]byte(tt.xml))
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.Year())
		})
	}
}

func TestArticleDoc_Abstract(t *testing.T) {
	t.Run("skips empty fragments and trims", func(t *testing.T) {
		doc, err := parseArticleDoc([]byte(`<A><Abstract>
			<AbstractText>  first  </AbstractText>
			<AbstractText></AbstractText>
			<AbstractText>   </AbstractText>
			<AbstractText>second</AbstractText>
		</Abstract></A>`))
		require.NoError(t, err)
		assert.Equal(t, "first\nsecond", doc.Abstract())
	})

	t.Run("includes inline markup text", func(t *testing.T) {
		doc, err := parseArticleDoc([]byte(`<A><Abstract><AbstractText>CO<sub>2</sub> levels</AbstractText></Abstract></A>`))
		require.NoError(t, err)
		assert.Equal(t, "CO2 levels", doc.Abstract())
	})

	t.Run("missing abstract", func(t *testing.T) {
		doc, err := parseArticleDoc([]byte(`<A><ArticleTitle>T</ArticleTitle></A>`))
		require.NoError(t, err)
		assert.Equal(t, "", doc.Abstract())
		assert.Equal(t, "T", doc.Title())
		assert.Equal(t, "", doc.Journal())
	})
}

func TestArticleDoc_FirstMatchWins(t *testing.T) {
	doc, err := parseArticleDoc([]byte(`<Set>
		<Article><ArticleTitle>First</ArticleTitle><Journal><Title>J1</Title></Journal></Article>
		<Article><ArticleTitle>Second</ArticleTitle><Journal><Title>J2</Title></Journal></Article>
	</Set>`))
	require.NoError(t, err)
	assert.Equal(t, "First", doc.Title())
	assert.Equal(t, "J1", doc.Journal())
}

func TestYearFromMedlineDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2020 Jan-Feb", "2020"},
		{"2020 Spring", "2020"},
		{"2020-2021", "2020"},
		{"1998 Dec-1999 Jan", "1998"},
		{"Spring", ""},
		{"", ""},
		{"20x0 Jan", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, yearFromMedlineDate(tt.input))
		})
	}
}

func TestDocSummary_Journal(t *testing.T) {
	assert.Equal(t, "Full", DocSummary{FullJournalName: "Full", Source: "Src"}.Journal())
	assert.Equal(t, "Src", DocSummary{Source: "Src"}.Journal())
	assert.Equal(t, "", DocSummary{}.Journal())
}

func TestESummaryResponse_Summary(t *testing.T) {
	var nilResp *ESummaryResponse
	_, err := nilResp.Summary("1")
	assert.ErrorIs(t, err, ErrNoSummary)

	var resp ESummaryResponse
	require.NoError(t, json.Unmarshal([]byte(`{"result": {
		"uids": ["1", "2", "4"],
		"1": {"uid": "1", "title": "T", "pubdate": "2021"},
		"2": "unexpected",
		"4": {"uid": "4", "error": "cannot get document summary"}
	}}`), &resp))

	doc, err := resp.Summary("1")
	require.NoError(t, err)
	assert.Equal(t, "T", doc.Title)
	assert.Equal(t, "2021", doc.PubDate)

	doc, err = resp.Summary("2")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSummary)
	assert.Contains(t, err.Error(), "decode summary for 2")
	assert.Equal(t, DocSummary{}, doc)

	_, err = resp.Summary("3")
	assert.ErrorIs(t, err, ErrNoSummary)

	doc, err = resp.Summary("4")
	require.NoError(t, err)
	assert.Equal(t, "cannot get document summary", doc.Error)
}

func TestESearchResponse_QueryTranslation(t *testing.T) {
	var nilResp *ESearchResponse
	assert.Equal(t, "", nilResp.QueryTranslation())
	assert.Equal(t, "", (&ESearchResponse{}).QueryTranslation())

	resp := &ESearchResponse{ESearchResult: &ESearchResult{QueryTranslation: `"cancer"[All Fields]`}}
	assert.Equal(t, `"cancer"[All Fields]`, resp.QueryTranslation())
}
