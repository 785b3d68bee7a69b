package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/mail"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo/memory"
	"github.com/suhendararyadi/lppm-iaipi-mhs/config"
	"github.com/suhendararyadi/lppm-iaipi-mhs/helper"
	"github.com/suhendararyadi/lppm-iaipi-mhs/route"
)

const testPassword = "rahasia123"

type mailerMock struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *mailerMock) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mailerMock) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

type testEnv struct {
	app      *fiber.App
	repos    *repo.Repositories
	mailer   *mailerMock
	notifier *mail.Notifier
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	config.Env.JWTSecret = "test-secret"
	config.Env.ScoreConcurrency = 4

	files, err := repo.NewLocalFileRepo(t.TempDir())
	require.NoError(t, err)

	env := &testEnv{
		app:    config.NewApp(helper.ErrorHandler),
		repos:  memory.NewStore().Repositories(),
		mailer: &mailerMock{},
	}
	env.notifier = mail.NewNotifier(env.mailer)
	route.SetupRoutes(env.app, env.repos, files, env.notifier)
	return env
}

func (e *testEnv) createUser(t *testing.T, role, email, name, nim string) model.User {
	t.Helper()
	hash, err := helper.HashPassword(testPassword)
	require.NoError(t, err)
	u := model.User{Email: email, FullName: name, NIM: nim, Role: role, PasswordHash: hash}
	require.NoError(t, e.repos.Users.Create(context.Background(), &u))
	return u
}

func (e *testEnv) token(t *testing.T, u model.User) string {
	t.Helper()
	tok, err := helper.GenerateToken(u)
	require.NoError(t, err)
	return tok
}

// createKelompok makes a group led by ketua, optionally supervised by dpl.
func (e *testEnv) createKelompok(t *testing.T, ketua model.User, dpl *model.User, anggota ...model.Anggota) model.Kelompok {
	t.Helper()
	ctx := context.Background()
	k := model.Kelompok{KetuaID: ketua.ID, Anggota: anggota}
	if dpl != nil {
		k.DPLID = &dpl.ID
	}
	require.NoError(t, e.repos.Kelompok.Create(ctx, &k))
	found, err := e.repos.Kelompok.FindByID(ctx, k.ID)
	require.NoError(t, err)
	return *found
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     interface{}
	token    string
	wantCode int
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

type upload struct {
	field, name string
	content     []byte
}

func (e *testEnv) doMultipart(t *testing.T, method, path, token string, fields map[string][]string, files ...upload) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, values := range fields {
		for _, v := range values {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) model.SuccessResponse[T] {
	t.Helper()
	defer resp.Body.Close()
	var out model.SuccessResponse[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return data
}
