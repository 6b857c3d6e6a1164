package jwt

import (
	"go/parser"
	"go/token"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"clinicflow/config"

	"github.com/google/uuid"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "secret", AccessExpiry: time.Minute})
	sub := Subject{UserID: uuid.New(), Role: "patient", Name: "Jane", Email: "jane@example.com"}

	token, tokenID, err := svc.GenerateAccessToken(sub)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if claims.TokenID != tokenID || claims.TokenType != AccessToken {
		t.Errorf("unexpected claims %+v", claims)
	}
	if got := claims.Subject(); got != sub {
		t.Errorf("expected subject %+v, got %+v", sub, got)
	}
}

func TestValidateRejects(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "secret", AccessExpiry: time.Minute})
	other := NewJWTService(config.JWTConfig{Secret: "other", AccessExpiry: time.Minute})
	expired := NewJWTService(config.JWTConfig{Secret: "secret", AccessExpiry: -time.Minute})
	sub := Subject{UserID: uuid.New(), Role: "admin"}

	foreign, _, _ := other.GenerateAccessToken(sub)
	if _, err := svc.ValidateToken(foreign); err == nil {
		t.Error("token signed with another secret must be rejected")
	}

	old, _, _ := expired.GenerateAccessToken(sub)
	if _, err := svc.ValidateToken(old); err == nil {
		t.Error("expired token must be rejected")
	}

	if _, err := svc.ValidateToken("not.a.jwt"); err == nil {
		t.Error("garbage must be rejected")
	}
}

func TestNoApplicationImports(t *testing.T) {
	files, err := filepath.Glob("*.go")
	if err != nil {
		t.Fatal(err)
	}
	fset := token.NewFileSet()
	for _, name := range files {
		f, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
		if err != nil {
			t.Fatal(err)
		}
		for _, imp := range f.Imports {
			path, _ := strconv.Unquote(imp.Path.Value)
			if strings.HasPrefix(path, "clinicflow/internal/") {
				t.Errorf("%s imports %s", name, path)
			}
		}
	}
}
