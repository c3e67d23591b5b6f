package service

import (
	"errors"
	"testing"
)

func TestCatalogCreateArea(t *testing.T) {
	f := setupDomainFixture(t)
	ctx := t.Context()

	if _, err := f.catalog.CreateArea(ctx, AreaInput{Name: "  "}); !errors.Is(err, ErrAreaNameRequired) {
		t.Fatalf("expected ErrAreaNameRequired, got %v", err)
	}
	if _, err := f.catalog.CreateArea(ctx, AreaInput{Name: " North Zone "}); !errors.Is(err, ErrAreaNameExists) {
		t.Fatalf("expected ErrAreaNameExists, got %v", err)
	}

	area, err := f.catalog.CreateArea(ctx, AreaInput{Name: " South Zone ", SortOrder: 2})
	if err != nil {
		t.Fatalf("create area failed: %v", err)
	}
	if area.Name != "South Zone" || !area.IsActive {
		t.Fatalf("unexpected area: %+v", area)
	}

	if _, err := f.catalog.UpdateArea(ctx, area.ID, AreaInput{Name: "North Zone"}); !errors.Is(err, ErrAreaNameExists) {
		t.Fatalf("expected rename conflict, got %v", err)
	}
	if _, err := f.catalog.UpdateArea(ctx, 9999, AreaInput{Name: "West Zone"}); !errors.Is(err, ErrAreaNotFound) {
		t.Fatalf("expected ErrAreaNotFound, got %v", err)
	}
}

func TestCatalogTokenTypeValidation(t *testing.T) {
	f := setupDomainFixture(t)
	ctx := t.Context()

	cases := []struct {
		name  string
		input TokenTypeInput
		want  error
	}{
		{"blank name", TokenTypeInput{Name: "", UnitPrice: "20"}, ErrTokenTypeNameInvalid},
		{"blank price", TokenTypeInput{Name: "Toned 1L"}, ErrTokenTypePriceInvalid},
		{"bad price", TokenTypeInput{Name: "Toned 1L", UnitPrice: "twenty"}, ErrTokenTypePriceInvalid},
		{"negative price", TokenTypeInput{Name: "Toned 1L", UnitPrice: "-1"}, ErrTokenTypePriceInvalid},
		{"duplicate", TokenTypeInput{Name: "Full Cream 500ml", UnitPrice: "30"}, ErrTokenTypeNameExists},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.catalog.CreateTokenType(ctx, tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	created, err := f.catalog.CreateTokenType(ctx, TokenTypeInput{Name: "Toned 1L", UnitPrice: "54.5"})
	if err != nil {
		t.Fatalf("create token type failed: %v", err)
	}
	if created.UnitPrice.String() != "54.50" {
		t.Fatalf("expected price 54.50, got %s", created.UnitPrice.String())
	}
	if _, err := f.catalog.UpdateTokenType(ctx, created.ID, TokenTypeInput{Name: "Full Cream 500ml", UnitPrice: "54.5"}); !errors.Is(err, ErrTokenTypeNameExists) {
		t.Fatalf("expected rename conflict, got %v", err)
	}
}

func TestCatalogRequireActiveTokenType(t *testing.T) {
	f := setupDomainFixture(t)
	ctx := t.Context()

	if _, err := f.catalog.RequireActiveTokenType(f.tokenType.ID); err != nil {
		t.Fatalf("expected active token type, got %v", err)
	}

	inactive := false
	if _, err := f.catalog.UpdateTokenType(ctx, f.tokenType.ID, TokenTypeInput{
		Name:      f.tokenType.Name,
		UnitPrice: "32.50",
		IsActive:  &inactive,
	}); err != nil {
		t.Fatalf("disable token type failed: %v", err)
	}
	if _, err := f.catalog.RequireActiveTokenType(f.tokenType.ID); !errors.Is(err, ErrTokenTypeInactive) {
		t.Fatalf("expected ErrTokenTypeInactive, got %v", err)
	}
	if _, err := f.catalog.RequireActiveTokenType(9999); !errors.Is(err, ErrTokenTypeNotFound) {
		t.Fatalf("expected ErrTokenTypeNotFound, got %v", err)
	}

	active, err := f.catalog.ListTokenTypes(true)
	if err != nil {
		t.Fatalf("list token types failed: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active token types, got %d", len(active))
	}
}
