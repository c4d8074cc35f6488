package domain

import "testing"

func TestUserFilter_Normalize(t *testing.T) {
	f := UserFilter{Name: "  ali ", Page: 0, PerPage: 500}.Normalize()
	if f.Name != "ali" || f.Page != 1 || f.PerPage != MaxPerPage {
		t.Fatalf("unexpected filter: %+v", f)
	}
	if f := (UserFilter{PerPage: -3}).Normalize(); f.PerPage != DefaultPerPage {
		t.Fatalf("expected default page size, got %d", f.PerPage)
	}
	if skip := (UserFilter{Page: 3, PerPage: 20}).Skip(); skip != 40 {
		t.Fatalf("expected skip 40, got %d", skip)
	}
}

func TestNewUserPage(t *testing.T) {
	cases := []struct {
		total   int64
		perPage int
		want    int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
	}
	for _, tc := range cases {
		if got := NewUserPage(nil, tc.total, tc.perPage).TotalPages; got != tc.want {
			t.Errorf("total=%d perPage=%d: expected %d pages, got %d", tc.total, tc.perPage, tc.want, got)
		}
	}
}

func TestRoleCatalog_Find(t *testing.T) {
	rc := RoleCatalog{{ID: "r-basic", Name: RoleBasic}, {Name: RoleAdmin}}

	if r, ok := rc.Find("r-basic"); !ok || r.Name != RoleBasic {
		t.Fatalf("expected lookup by id, got %+v %v", r, ok)
	}
	if r, ok := rc.Find(RoleAdmin); !ok || r.Name != RoleAdmin {
		t.Fatalf("expected lookup by name, got %+v %v", r, ok)
	}
	if _, ok := rc.Find("guest"); ok {
		t.Fatalf("expected unknown role to miss")
	}
	if _, ok := rc.Find(""); ok {
		t.Fatalf("expected empty reference to miss")
	}
}
