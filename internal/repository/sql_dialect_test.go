package repository

import "testing"

func TestLikeOperatorByDialect(t *testing.T) {
	cases := map[string]string{
		"postgres":   "ILIKE",
		"postgresql": "ILIKE",
		"sqlite":     "LIKE",
		"":           "LIKE",
	}
	for dialect, want := range cases {
		if got := likeOperatorByDialect(dialect); got != want {
			t.Fatalf("dialect %q want %s got %s", dialect, want, got)
		}
	}
	if likeOperator(nil) != "LIKE" {
		t.Fatalf("nil db should fall back to sqlite")
	}
}

func TestLikePatternTrimsKeyword(t *testing.T) {
	if got := likePattern("  ravi "); got != "%ravi%" {
		t.Fatalf("unexpected pattern: %s", got)
	}
}
