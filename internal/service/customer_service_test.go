package service

import (
	"errors"
	"testing"

	"github.com/milkdesk/internal/constants"
	"github.com/milkdesk/internal/repository"
)

func TestCustomerCreateValidation(t *testing.T) {
	f := setupDomainFixture(t)
	valid := CustomerInput{
		Name:    "Ravi Kumar",
		Mobile:  "8123456789",
		AreaID:  f.area.ID,
		Address: "Flat 4B, Green Residency, MG Road",
		Pin:     "560001",
	}
	cases := []struct {
		name   string
		mutate func(in *CustomerInput)
		want   error
	}{
		{"short name", func(in *CustomerInput) { in.Name = "R" }, ErrCustomerNameRequired},
		{"mobile starts with 5", func(in *CustomerInput) { in.Mobile = "5123456789" }, ErrMobileInvalid},
		{"mobile too short", func(in *CustomerInput) { in.Mobile = "912345678" }, ErrMobileInvalid},
		{"short address", func(in *CustomerInput) { in.Address = "MG Road" }, ErrCustomerAddressShort},
		{"bad pin", func(in *CustomerInput) { in.Pin = "56001" }, ErrCustomerPinInvalid},
		{"missing area", func(in *CustomerInput) { in.AreaID = 0 }, ErrAreaNotFound},
		{"duplicate mobile", func(in *CustomerInput) { in.Mobile = f.customer.Mobile }, ErrCustomerMobileExists},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := valid
			tc.mutate(&input)
			if _, err := f.customers.Create(t.Context(), input, 1); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	created, err := f.customers.Create(t.Context(), valid, 7)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !created.IsActive || created.CreatedBy != 7 || created.Area == nil {
		t.Fatalf("unexpected customer: %+v", created)
	}
	if !f.notifier.has(constants.RefreshTopicCustomers) {
		t.Fatalf("expected customers refresh topic")
	}
}

func TestCustomerUpdateKeepsOwnMobile(t *testing.T) {
	f := setupDomainFixture(t)
	updated, err := f.customers.Update(t.Context(), f.customer.ID, CustomerInput{
		Name:    "Asha V.",
		Mobile:  f.customer.Mobile,
		AreaID:  f.area.ID,
		Address: "22 Lake View Road, Sector 4",
	}, 2)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Name != "Asha V." || updated.UpdatedBy != 2 {
		t.Fatalf("unexpected update: %+v", updated)
	}
}

func TestCustomerSoftDelete(t *testing.T) {
	f := setupDomainFixture(t)
	ctx := t.Context()
	f.createCustomer(t, "Meena", "7012345678")

	customer, err := f.customers.SetStatus(ctx, f.customer.ID, false, 5)
	if err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if customer.IsActive || customer.UpdatedBy != 5 {
		t.Fatalf("expected inactive customer updated by 5, got %+v", customer)
	}

	stats, err := f.customers.Stats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Active != 1 || stats.Inactive != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	inactive, total, err := f.customers.List(repository.CustomerListFilter{IsActive: ParseCustomerStatus("inactive"), Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(inactive) != 1 || inactive[0].ID != f.customer.ID {
		t.Fatalf("unexpected inactive list: %d %+v", total, inactive)
	}

	if _, err := f.customers.SetStatus(ctx, 999, true, 5); !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestParseCustomerStatus(t *testing.T) {
	if v := ParseCustomerStatus("Active"); v == nil || !*v {
		t.Fatalf("expected active=true")
	}
	if v := ParseCustomerStatus("inactive"); v == nil || *v {
		t.Fatalf("expected active=false")
	}
	if v := ParseCustomerStatus("all"); v != nil {
		t.Fatalf("expected nil filter for all")
	}
}
