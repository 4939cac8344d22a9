package auth

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

func signMessage(t *testing.T, message string) (string, string) {
	t.Helper()

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	hash := crypto.Keccak256Hash([]byte(prefixed))
	sig, err := crypto.Sign(hash.Bytes(), key)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	sig[64] += 27

	return crypto.PubkeyToAddress(key.PublicKey).Hex(), "0x" + hex.EncodeToString(sig)
}

func TestVerifyEIP191Signature_RecoversSigner(t *testing.T) {
	message := "scratch-off login"
	wantAddr, sig := signMessage(t, message)

	got, err := VerifyEIP191Signature(message, sig)
	if err != nil {
		t.Fatalf("VerifyEIP191Signature() failed: %v", err)
	}
	if got.Hex() != wantAddr {
		t.Fatalf("expected %s, got %s", wantAddr, got.Hex())
	}
}

func TestVerifyEIP191Signature_WrongMessageRecoversOtherAddress(t *testing.T) {
	wantAddr, sig := signMessage(t, "scratch-off login")

	got, err := VerifyEIP191Signature("another message", sig)
	if err != nil {
		t.Fatalf("VerifyEIP191Signature() failed: %v", err)
	}
	if got.Hex() == wantAddr {
		t.Fatalf("tampered message must not recover the signer")
	}
}

func TestVerifyEIP191Signature_BadInput(t *testing.T) {
	if _, err := VerifyEIP191Signature("msg", "0xzz"); err == nil {
		t.Fatalf("expected error for invalid hex")
	}
	if _, err := VerifyEIP191Signature("msg", "0x0102"); err == nil {
		t.Fatalf("expected error for short signature")
	}
}

func TestValidateEVMAddress(t *testing.T) {
	if !ValidateEVMAddress("0x1111111111111111111111111111111111111111") {
		t.Fatalf("expected valid address")
	}
	for _, bad := range []string{"", "1111111111111111111111111111111111111111", "0x1111", "0xzz11111111111111111111111111111111111111"} {
		if ValidateEVMAddress(bad) {
			t.Fatalf("expected %q to be invalid", bad)
		}
	}
}

func TestSessionIssuer_RoundTrip(t *testing.T) {
	issuer := NewSessionIssuerWithSecret([]byte("0123456789abcdef0123456789abcdef"), time.Hour)

	wallet := "0x1111111111111111111111111111111111111111"
	token, err := issuer.Issue(wallet)
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	got, err := issuer.Validate(token)
	if err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if got != NormalizeAddress(wallet) {
		t.Fatalf("expected %s, got %s", NormalizeAddress(wallet), got)
	}
}

func TestSessionIssuer_RejectsExpiredAndForeignTokens(t *testing.T) {
	issuer := NewSessionIssuerWithSecret([]byte("0123456789abcdef0123456789abcdef"), -time.Minute)
	token, err := issuer.Issue("0x1111111111111111111111111111111111111111")
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}
	if _, err := issuer.Validate(token); err == nil {
		t.Fatalf("expected expired token to fail validation")
	}

	other := NewSessionIssuerWithSecret([]byte("ffffffffffffffffffffffffffffffff"), time.Hour)
	foreign, err := other.Issue("0x1111111111111111111111111111111111111111")
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}
	valid := NewSessionIssuerWithSecret([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	if _, err := valid.Validate(foreign); err == nil {
		t.Fatalf("expected token signed with another secret to fail")
	}
}

func TestRequireSession_Middleware(t *testing.T) {
	issuer := NewSessionIssuerWithSecret([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	wallet := "0x1111111111111111111111111111111111111111"
	token, err := issuer.Issue(wallet)
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	var gotWallet string
	handler := RequireSession(issuer, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotWallet, _ = WalletFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if gotWallet != NormalizeAddress(wallet) {
		t.Fatalf("expected wallet in context, got %q", gotWallet)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for bad token, got %d", rec.Code)
	}
}
