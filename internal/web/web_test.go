package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motord/internal/logger"
)

type fakeSender struct {
	sent  []string
	reply string
	err   error
}

func (f *fakeSender) Send(_ context.Context, command string) (string, error) {
	f.sent = append(f.sent, command)
	return f.reply, f.err
}

func get(t *testing.T, h http.Handler, target string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestIndexRendersOneFormPerMotor(t *testing.T) {
	h := NewHandler(logger.Discard(), &fakeSender{}, "pi:12345", []int{1, 2, 3, 4}, 0)

	code, body := get(t, h.Router(), "/")

	assert.Equal(t, http.StatusOK, code)
	for _, want := range []string{"<h2>Motor 1</h2>", "<h2>Motor 4</h2>", `name="motor_id" value="3"`, "pi:12345"} {
		assert.Contains(t, body, want)
	}
}

func TestControlForwardsCommand(t *testing.T) {
	sender := &fakeSender{reply: "OK: motor=2, dir=backward, speed=100"}
	h := NewHandler(logger.Discard(), sender, "pi:12345", []int{1, 2}, 0)

	code, body := get(t, h.Router(), "/control?motor_id=2&direction=backward&speed=100")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"2,backward,100"}, sender.sent)
	assert.Equal(t, "Sent '2,backward,100' -> server responded: OK: motor=2, dir=backward, speed=100", body)
}

func TestControlDefaults(t *testing.T) {
	sender := &fakeSender{reply: "OK"}
	h := NewHandler(logger.Discard(), sender, "pi:12345", []int{1}, 0)

	get(t, h.Router(), "/control")

	assert.Equal(t, []string{"1,forward,30000"}, sender.sent)
}

func TestControlForwardsEmptyValues(t *testing.T) {
	sender := &fakeSender{reply: "ERROR: could not parse numbers"}
	h := NewHandler(logger.Discard(), sender, "pi:12345", []int{1}, 0)

	_, body := get(t, h.Router(), "/control?motor_id=1&direction=forward&speed=")

	assert.Equal(t, []string{"1,forward,"}, sender.sent)
	assert.Equal(t, "Sent '1,forward,' -> server responded: ERROR: could not parse numbers", body)
}

func TestControlReportsTransportError(t *testing.T) {
	sender := &fakeSender{err: errors.New("connection refused")}
	h := NewHandler(logger.Discard(), sender, "pi:12345", []int{1}, 0)

	code, body := get(t, h.Router(), "/control?motor_id=1&direction=forward&speed=5")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Sent '1,forward,5' -> server responded: ERROR contacting server: connection refused", body)
}

func TestControlRejectsPost(t *testing.T) {
	h := NewHandler(logger.Discard(), &fakeSender{}, "pi:12345", []int{1}, 0)

	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/control", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
