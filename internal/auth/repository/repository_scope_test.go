package repository

import (
	"strings"
	"testing"
)

func TestSharesOrganisationQueryJoinsMemberships(t *testing.T) {
	query := strings.ToLower(sharesOrganisationQuery)

	requiredFragments := []string{
		"from organisation_members a",
		"join organisation_members b on b.organisation_id = a.organisation_id",
		"where a.user_id = $1 and b.user_id = $2",
	}

	for _, fragment := range requiredFragments {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected membership query fragment %q to be present", fragment)
		}
	}
}

func TestUserQueriesNeverSelectStar(t *testing.T) {
	for name, query := range map[string]string{
		"create":   createUserQuery,
		"by email": getUserByEmailQuery,
		"by id":    getUserByIDQuery,
	} {
		if strings.Contains(query, "*") {
			t.Fatalf("%s query should list its columns explicitly", name)
		}
		if !strings.Contains(query, "password_hash") {
			t.Fatalf("%s query should return the password hash column", name)
		}
	}
}

func TestCreateUserIsLookedUpByUniqueEmail(t *testing.T) {
	if !strings.Contains(getUserByEmailQuery, "WHERE email = $1") {
		t.Fatal("email lookup should filter on the unique email column")
	}
	if emailUniqueConstraint != "users_email_key" {
		t.Fatalf("unexpected email constraint %q", emailUniqueConstraint)
	}
}
