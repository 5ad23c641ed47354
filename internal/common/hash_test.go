package common

import "testing"

func TestSha256Hex(t *testing.T) {
	cases := map[string]string{
		"":    "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		"abc": "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
	}
	for input, want := range cases {
		if got := Sha256Hex(input); got != want {
			t.Fatalf("Sha256Hex(%q) = %s, want %s", input, got, want)
		}
	}
	if Sha256Hex("token-a") == Sha256Hex("token-b") {
		t.Fatal("distinct inputs must not collide")
	}
}
