package auth

import (
	"testing"
	"time"
)

func TestSignAndParse(t *testing.T) {
	ts := TokenService{
		Secret:   []byte("test-secret"),
		Issuer:   "bundlegen",
		Duration: time.Hour,
	}

	op := &Operator{ID: "op-1", Username: "carla", TokenVersion: 3}
	token, exp, err := ts.Sign(op)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if exp.Before(time.Now()) {
		t.Fatal("token already expired")
	}

	claims, err := ts.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.OperatorID != "op-1" || claims.Username != "carla" || claims.TokenVersion != 3 {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	ts := TokenService{Secret: []byte("right"), Issuer: "bundlegen", Duration: time.Hour}
	token, _, err := ts.Sign(&Operator{ID: "op-1", Username: "carla"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	other := TokenService{Secret: []byte("wrong"), Issuer: "bundlegen", Duration: time.Hour}
	if _, err := other.Parse(token); err == nil {
		t.Fatal("expected parse to fail with wrong secret")
	}
}
