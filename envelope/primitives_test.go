package envelope

import "testing"

func TestMACSHA256_VerifiesOwnOutput(t *testing.T) {
	key := []byte("hmac-key")
	data := []byte("order-7781")
	mac := MACSHA256(key, data)
	if !VerifyMACSHA256(key, data, mac) {
		t.Fatalf("expected self-generated MAC to verify")
	}
}

func TestMACSHA256_RejectsTamperedData(t *testing.T) {
	key := []byte("hmac-key")
	mac := MACSHA256(key, []byte("order-7781"))
	if VerifyMACSHA256(key, []byte("order-7782"), mac) {
		t.Fatalf("expected MAC verification to fail for different data")
	}
}

func TestConstantTimeEqual_LengthMismatch(t *testing.T) {
	if ConstantTimeEqual([]byte("abc"), []byte("ab")) {
		t.Fatalf("expected false for differing lengths")
	}
}

func TestConstantTimeEqual_EqualBytes(t *testing.T) {
	if !ConstantTimeEqual([]byte("abc"), []byte("abc")) {
		t.Fatalf("expected true for identical byte slices")
	}
}

func TestHashSHA256_IsDeterministic(t *testing.T) {
	a := HashSHA256([]byte("workchain"))
	b := HashSHA256([]byte("workchain"))
	if a != b {
		t.Fatalf("expected identical digests for identical input")
	}
}
