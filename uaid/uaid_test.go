package uaid

import "testing"

func TestParsePrefixedWithSuffix(t *testing.T) {
	id, ok := Parse("uaid:1:0xAbCdEf0123456789aBcDeF0123456789AbCdEf01;11155111")
	if !ok {
		t.Fatalf("Parse() ok = false, want true")
	}
	if id.ChainID != 11155111 {
		t.Fatalf("ChainID = %d, want 11155111", id.ChainID)
	}
	if id.AgentAccount != "0xabcdef0123456789abcdef0123456789abcdef01" {
		t.Fatalf("AgentAccount = %q, want lower-cased account", id.AgentAccount)
	}
}

func TestParseBareBody(t *testing.T) {
	id, ok := Parse("1:0xABC0000000000000000000000000000000000001")
	if !ok {
		t.Fatalf("Parse() ok = false, want true")
	}
	if id.ChainID != 1 {
		t.Fatalf("ChainID = %d, want 1", id.ChainID)
	}
}

func TestParseMalformed(t *testing.T) {
	for _, in := range []string{
		"",
		"   ",
		"uaid:",
		"acme.eth",
		"uaid:1:not-an-account",
		"0xZZ",
	} {
		if _, ok := Parse(in); ok {
			t.Fatalf("Parse(%q) ok = true, want false", in)
		}
	}
}

func TestParseMissingChainID(t *testing.T) {
	if _, ok := Parse("uaid:0xabc0000000000000000000000000000000000001"); ok {
		t.Fatalf("Parse() without a chain id should fail")
	}
}

func TestEqualAcrossEncodings(t *testing.T) {
	a := "uaid:1:0xABC0000000000000000000000000000000000001;11155111"
	b := "1:0xabc0000000000000000000000000000000000001;11155111"
	if !Equal(a, b) {
		t.Fatalf("Equal(%q, %q) = false, want true", a, b)
	}
}

func TestCanonicalUnparseableFallsBack(t *testing.T) {
	if got := Canonical("  Acme.ETH "); got != "acme.eth" {
		t.Fatalf("Canonical() = %q, want %q", got, "acme.eth")
	}
}
