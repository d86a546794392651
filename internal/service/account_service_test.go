package service

import (
	"testing"
	"time"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"
	"go-pos-ws/internal/ws"
	"go-pos-ws/pkg/jwt"
	"go-pos-ws/pkg/validator"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAccountServices(t *testing.T) (*testEnv, AuthService, UserService) {
	t.Helper()
	e := newTestEnv(t)
	auth := NewAuthService(e.userRepo, jwt.NewManager("test-secret", time.Hour), ws.NewHub(nil), zap.NewNop())
	return e, auth, NewUserService(e.userRepo)
}

func createCashier(t *testing.T, users UserService) *model.User {
	t.Helper()
	u, err := users.CreateUser(&CreateUserRequest{
		Email:    " Caixa@Mercadinho.com.br ",
		Password: "segredo1",
		Name:     "João Caixa",
		Role:     model.RoleVendedor,
	}, testActor)
	require.NoError(t, err)
	return u
}

func TestAuthService_Login(t *testing.T) {
	_, auth, users := newAccountServices(t)
	u := createCashier(t, users)
	assert.Equal(t, "caixa@mercadinho.com.br", u.Email)

	_, err := auth.Login("caixa@mercadinho.com.br", "errada")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login("ninguem@mercadinho.com.br", "segredo1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	res, err := auth.Login("CAIXA@mercadinho.com.br", "segredo1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, model.RoleVendedor, res.Role)
	assert.Contains(t, res.Permissions, model.PermSaleCreate)
	assert.NotContains(t, res.Permissions, model.PermUserManage)

	validated, err := auth.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, validated.User.ID)
}

func TestAuthService_SingleSession(t *testing.T) {
	_, auth, users := newAccountServices(t)
	createCashier(t, users)

	first, err := auth.Login("caixa@mercadinho.com.br", "segredo1")
	require.NoError(t, err)
	second, err := auth.Login("caixa@mercadinho.com.br", "segredo1")
	require.NoError(t, err)

	_, err = auth.ValidateToken(first.Token)
	assert.ErrorIs(t, err, ErrSessionReplaced)

	_, err = auth.ValidateToken(second.Token)
	assert.NoError(t, err)

	_, err = auth.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestAuthService_InactiveUser(t *testing.T) {
	_, auth, users := newAccountServices(t)
	u := createCashier(t, users)

	res, err := auth.Login("caixa@mercadinho.com.br", "segredo1")
	require.NoError(t, err)

	inactive := false
	_, err = users.UpdateUser(u.ID, &UpdateUserRequest{
		Email:    u.Email,
		Name:     u.Name,
		Role:     u.Role,
		IsActive: &inactive,
	}, testActor)
	require.NoError(t, err)

	_, err = auth.Login("caixa@mercadinho.com.br", "segredo1")
	assert.ErrorIs(t, err, ErrUserInactive)

	_, err = auth.ValidateToken(res.Token)
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestAuthService_ChangePassword(t *testing.T) {
	_, auth, users := newAccountServices(t)
	u := createCashier(t, users)

	assert.ErrorIs(t, auth.ChangePassword(u.ID, "errada", "novasenha"), ErrWrongPassword)
	assert.ErrorIs(t, auth.ChangePassword(uuid.New(), "segredo1", "novasenha"), ErrUserNotFound)

	before, err := auth.Login("caixa@mercadinho.com.br", "segredo1")
	require.NoError(t, err)

	require.NoError(t, auth.ChangePassword(u.ID, "segredo1", "novasenha"))

	_, err = auth.ValidateToken(before.Token)
	assert.ErrorIs(t, err, ErrSessionReplaced, "tokens issued before the change are signed out")

	_, err = auth.Login("caixa@mercadinho.com.br", "segredo1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	after, err := auth.Login("caixa@mercadinho.com.br", "novasenha")
	require.NoError(t, err)
	_, err = auth.ValidateToken(after.Token)
	assert.NoError(t, err)
}

func TestAuthService_Heartbeat(t *testing.T) {
	e, auth, users := newAccountServices(t)
	u := createCashier(t, users)

	require.NoError(t, auth.Heartbeat(Actor{ID: u.ID.String(), Name: u.Name, Email: u.Email}))

	stored, err := e.userRepo.FindByID(u.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastSeenAt)

	assert.ErrorIs(t, auth.Heartbeat(Actor{ID: "garbage"}), ErrUserNotFound)
}

func TestUserService_CreateUser(t *testing.T) {
	_, _, users := newAccountServices(t)
	createCashier(t, users)

	tests := []struct {
		name    string
		req     CreateUserRequest
		wantErr error
	}{
		{
			name:    "duplicate email",
			req:     CreateUserRequest{Email: "caixa@mercadinho.com.br", Password: "segredo1", Name: "Outro", Role: model.RoleGerente},
			wantErr: ErrEmailExists,
		},
		{
			name:    "unknown role",
			req:     CreateUserRequest{Email: "novo@mercadinho.com.br", Password: "segredo1", Name: "Novo", Role: "Dono"},
			wantErr: ErrInvalidRole,
		},
		{
			name:    "short password",
			req:     CreateUserRequest{Email: "novo@mercadinho.com.br", Password: "123", Name: "Novo", Role: model.RoleGerente},
			wantErr: validator.ErrValidation,
		},
		{
			name:    "bad email",
			req:     CreateUserRequest{Email: "novo", Password: "segredo1", Name: "Novo", Role: model.RoleGerente},
			wantErr: validator.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := users.CreateUser(&tt.req, testActor)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	all, err := users.GetAllUsers()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUserService_UpdatePasswordEndsSessions(t *testing.T) {
	_, auth, users := newAccountServices(t)
	u := createCashier(t, users)

	res, err := auth.Login("caixa@mercadinho.com.br", "segredo1")
	require.NoError(t, err)

	password := "trocada1"
	updated, err := users.UpdateUser(u.ID, &UpdateUserRequest{
		Email:    u.Email,
		Name:     "João da Silva",
		Role:     model.RoleGerente,
		Password: &password,
	}, testActor)
	require.NoError(t, err)
	assert.Equal(t, "João da Silva", updated.Name)
	assert.Equal(t, model.RoleGerente, updated.Role)

	_, err = auth.ValidateToken(res.Token)
	assert.ErrorIs(t, err, ErrSessionReplaced)

	_, err = auth.Login("caixa@mercadinho.com.br", "trocada1")
	assert.NoError(t, err)

	_, err = users.UpdateUser(uuid.New(), &UpdateUserRequest{Email: "x@y.com", Name: "X", Role: model.RoleGerente}, testActor)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_DeleteUser(t *testing.T) {
	_, _, users := newAccountServices(t)
	u := createCashier(t, users)

	self := Actor{ID: u.ID.String(), Name: u.Name, Email: u.Email}
	assert.ErrorIs(t, users.DeleteUser(u.ID, self), ErrDeleteSelf)

	require.NoError(t, users.DeleteUser(u.ID, testActor))
	_, err := users.GetUserByID(u.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	assert.ErrorIs(t, users.DeleteUser(u.ID, testActor), ErrUserNotFound)
}

func TestUserService_GetRoles(t *testing.T) {
	_, _, users := newAccountServices(t)

	roles := users.GetRoles()
	require.Len(t, roles, 3)
	assert.Equal(t, model.RoleAdministrador, roles[0].Code)
	assert.ElementsMatch(t, model.AllPermissions, roles[0].Permissions)
}

func TestCompanyService(t *testing.T) {
	e := newTestEnv(t)
	company := NewCompanyService(repository.NewCompanyRepo(e.db), ws.NewHub(nil))

	info, err := company.GetInfo()
	require.NoError(t, err)
	assert.Empty(t, info.Name)

	_, err = company.UpdateInfo(&model.CompanyInfo{Name: "  "}, testActor)
	assert.ErrorIs(t, err, validator.ErrValidation)

	updated, err := company.UpdateInfo(&model.CompanyInfo{
		Name:          "Mercadinho São José",
		Document:      "12.345.678/0001-90",
		Email:         "contato@mercadinho.com.br",
		ReceiptFooter: "Volte sempre!",
	}, testActor)
	require.NoError(t, err)
	assert.Equal(t, "Mercadinho São José", updated.Name)
	assert.Equal(t, testActor.ID, updated.UpdatedBy)

	again, err := company.UpdateInfo(&model.CompanyInfo{Name: "Mercadinho Novo"}, testActor)
	require.NoError(t, err)
	assert.Equal(t, "Mercadinho Novo", again.Name)
	assert.Empty(t, again.Document, "update replaces the whole record")
}
