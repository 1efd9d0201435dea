package resolution

import "testing"

func TestNormalizeCompany(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Acme Inc.", "acme"},
		{"Acme, Inc.", "acme"},
		{"  Paradigm   Capital  ", "paradigm capital"},
		{"Uniswap Labs LLC", "uniswap labs"},
		{"acme", "acme"},
	}
	for _, c := range cases {
		if got := NormalizeCompany(c.in); got != c.want {
			t.Errorf("NormalizeCompany(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeCompanyIdempotent(t *testing.T) {
	inputs := []string{"Acme Inc.", "Paradigm Capital", "Coinbase, LLC."}
	for _, in := range inputs {
		once := NormalizeCompany(in)
		twice := NormalizeCompany(once)
		if once != twice {
			t.Errorf("NormalizeCompany not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestExtractLinkedInSlug(t *testing.T) {
	cases := []struct {
		bio  string
		want string
	}{
		{"Find me at linkedin.com/in/jane-doe", "jane-doe"},
		{"https://www.linkedin.com/in/John-Smith/", "john-smith"},
		{"check out linkedin.com/company/acme", "acme"},
		{"no links here", ""},
	}
	for _, c := range cases {
		if got := ExtractLinkedInSlug(c.bio); got != c.want {
			t.Errorf("ExtractLinkedInSlug(%q) = %q, want %q", c.bio, got, c.want)
		}
	}
}

func TestNormalizeLinkedInURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://www.linkedin.com/in/jane-doe/", "linkedin.com/in/jane-doe"},
		{"http://linkedin.com/in/jane-doe", "linkedin.com/in/jane-doe"},
		{"LinkedIn.com/in/Jane-Doe?trk=abc", "linkedin.com/in/jane-doe"},
		{"https://www.linkedin.com/company/acme/", ""},
		{"https://example.com", ""},
	}
	for _, c := range cases {
		if got := NormalizeLinkedInURL(c.in); got != c.want {
			t.Errorf("NormalizeLinkedInURL(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeLinkedInURLIdempotent(t *testing.T) {
	inputs := []string{"https://www.linkedin.com/in/jane-doe/", "linkedin.com/in/bob"}
	for _, in := range inputs {
		once := NormalizeLinkedInURL(in)
		twice := NormalizeLinkedInURL(once)
		if once != twice {
			t.Errorf("NormalizeLinkedInURL not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestSplitName(t *testing.T) {
	cases := []struct {
		name           string
		wantFirst      string
		wantLastPieces string
	}{
		{"Jane Doe", "Jane", "Doe"},
		{"John Middle Smith", "John", "Middle Smith"},
		{"Cher", "Cher", ""},
		{"", "", ""},
		{"  spaced   out  ", "spaced", "out"},
	}
	for _, c := range cases {
		first, last := SplitName(c.name)
		if first != c.wantFirst || last != c.wantLastPieces {
			t.Errorf("SplitName(%q) = (%q, %q), want (%q, %q)", c.name, first, last, c.wantFirst, c.wantLastPieces)
		}
	}
}
