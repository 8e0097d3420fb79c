package handlers

import (
	"context"
	"net/http"
	"sync"

	"markov_occupancy/internal/engine"
	"markov_occupancy/internal/models"
	"markov_occupancy/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	mu sync.Mutex

	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

func (m *mockAuth) parsedToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastParseToken
}

type mockOccupancy struct {
	res   *service.SimulateResult
	err   error
	calls int
	last  service.SimulateParams
}

func (m *mockOccupancy) Simulate(ctx context.Context, p service.SimulateParams) (*service.SimulateResult, error) {
	m.calls++
	m.last = p
	return m.res, m.err
}

type mockModels struct {
	model      models.Model
	states     []string
	err        error
	replaceErr error
	lastParams service.ModelParams
	replaced   int
}

func (m *mockModels) Current(ctx context.Context) (models.Model, error) { return m.model, m.err }
func (m *mockModels) States(ctx context.Context) ([]string, error)     { return m.states, m.err }
func (m *mockModels) Seed(ctx context.Context) error                   { return nil }
func (m *mockModels) Replace(ctx context.Context, p service.ModelParams) (models.Model, error) {
	m.replaced++
	m.lastParams = p
	if m.replaceErr != nil {
		return models.Model{}, m.replaceErr
	}
	return models.Model{ID: 1, States: p.States}, nil
}

type mockRunLog struct {
	mu         sync.Mutex
	resp       []models.Run
	err        error
	lastFilter service.RunFilter
	lastLimit  int
	recent     int
}

func (m *mockRunLog) List(ctx context.Context, f service.RunFilter) ([]models.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = f
	return m.resp, m.err
}

func (m *mockRunLog) Recent(ctx context.Context, limit int) ([]models.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recent++
	m.lastLimit = limit
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func weatherResult() *service.SimulateResult {
	return &service.SimulateResult{
		RunID: "run-1",
		Result: &engine.Result{
			States:      []string{"sunny", "cloudy", "rainy"},
			Frequencies: []float64{46.43, 42.86, 10.71},
			Hours:       10000,
			Diagnostics: engine.Diagnostics{Iterations: 17},
		},
	}
}

func newTestRouter(s *service.Service, opts ...Option) *gin.Engine {
	h := NewHandler(s, nil, opts...)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
