package formatter

import (
	"testing"

	"github.com/idia-astro/ilifudb/internal/domain"
	"github.com/idia-astro/ilifudb/internal/password"
	"github.com/stretchr/testify/assert"
)

func TestFormatUserList(t *testing.T) {
	hash := password.HashWith("secret", password.DefaultRounds, []byte("0123456789abcdef"))
	users := []*domain.User{
		{Username: "jhorrell", FirstName: "Jasper", LastName: "Horrell", Email: "jasper@idia.ac.za", Institution: "IDIA", Enabled: true, PasswordHash: &hash},
		{Username: "sblyth", FirstName: "Sarah", LastName: "Blyth", Email: "sarah@uct.ac.za", Institution: "UCT"},
	}

	out := stripANSI(FormatUserList(users))

	assert.Contains(t, out, "USERNAME")
	assert.Contains(t, out, "Jasper Horrell")
	assert.Contains(t, out, "sarah@uct.ac.za")
}

func TestFormatUserDetail_Roles(t *testing.T) {
	id := int64(7)
	other := int64(9)
	u := &domain.User{ID: id, Username: "sblyth", FirstName: "Sarah", LastName: "Blyth", Email: "sarah@uct.ac.za", Institution: "UCT"}
	laduma := &domain.Project{Name: "LADUMA", Position: domain.TreePosition{1, 1}, PIUserID: &id, AdminUserID: &id, CoPIUserID: &other}

	out := stripANSI(FormatUserDetail(UserDetail{User: u, Roles: []*domain.Project{laduma}}))

	assert.Contains(t, out, "SBLYTH")
	assert.Contains(t, out, "pi, admin")
	assert.NotContains(t, out, "co-pi")
}

func TestPasswordSummary(t *testing.T) {
	weak := password.HashWith("secret", 1000, []byte("0123456789abcdef"))
	strong := password.HashWith("secret", password.DefaultRounds, []byte("0123456789abcdef"))

	assert.Equal(t, "--", stripANSI(passwordSummary(&domain.User{})))
	assert.Equal(t, "set (weak hash)", stripANSI(passwordSummary(&domain.User{PasswordHash: &weak})))
	assert.Equal(t, "set", stripANSI(passwordSummary(&domain.User{PasswordHash: &strong})))
}

func TestKeySummary_Unparseable(t *testing.T) {
	bad := "ssh-ed25519 not-base64"
	assert.Equal(t, "unparseable", stripANSI(keySummary(&bad)))
	assert.Equal(t, "--", stripANSI(keySummary(nil)))
}
