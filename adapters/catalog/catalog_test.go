package catalog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeywordOrder(t *testing.T) {
	want := []string{
		"self help", "shg", "loan", "saving", "interest", "meeting",
		"member", "volunteer", "register", "bank", "platform", "hello",
	}

	var got []string
	for _, e := range Default().Entries() {
		got = append(got, e.Keyword)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("keyword order mismatch (-want +got):\n%s", diff)
	}
}

func TestLookup(t *testing.T) {
	c := Default()
	selfHelp, ok := c.Response("self help")
	require.True(t, ok)
	loan, ok := c.Response("loan")
	require.True(t, ok)

	assert.Equal(t, selfHelp, c.Lookup("tell me about a self help group"))
	// both "loan" and "member" occur; table order decides
	assert.Equal(t, loan, c.Lookup("member loan"))
	assert.Equal(t, c.DefaultResponse(), c.Lookup("random unrelated text xyz"))
	assert.Equal(t, c.DefaultResponse(), c.Lookup(""))
}

func TestEntriesReturnsCopy(t *testing.T) {
	c := Default()
	entries := c.Entries()
	entries[0].Response = "mutated"

	assert.NotEqual(t, "mutated", c.Entries()[0].Response)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{
			name: "valid",
			yaml: `
entries:
  - keyword: loan
    response: about loans
default: fallback`,
		},
		{
			name: "empty keyword",
			yaml: `
entries:
  - keyword: ""
    response: about loans
default: fallback`,
			wantErr: ErrEmptyKeyword,
		},
		{
			name: "uppercase keyword",
			yaml: `
entries:
  - keyword: Loan
    response: about loans
default: fallback`,
			wantErr: ErrUppercaseKeyword,
		},
		{
			name: "empty response",
			yaml: `
entries:
  - keyword: loan
    response: "  "
default: fallback`,
			wantErr: ErrEmptyResponse,
		},
		{
			name: "missing default",
			yaml: `
entries:
  - keyword: loan
    response: about loans`,
			wantErr: ErrMissingDefault,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Load([]byte(tt.yaml))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "about loans", c.Lookup("need a loan"))
			assert.Equal(t, "fallback", c.Lookup("nothing"))
		})
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	_, err := Load([]byte("entries: [unterminated"))
	assert.Error(t, err)
}
