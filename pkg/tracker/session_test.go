package tracker

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeConsole struct {
	lines []string
	out   []string
	err   error
}

func (c *fakeConsole) ReadLine() (string, error) {
	if len(c.lines) == 0 {
		if c.err != nil {
			return "", c.err
		}
		return "", io.EOF
	}
	line := c.lines[0]
	c.lines = c.lines[1:]
	return line, nil
}

func (c *fakeConsole) WriteLine(text string) {
	c.out = append(c.out, text)
}

func (c *fakeConsole) output() string {
	return strings.Join(c.out, "\n")
}

// blockingConsole never delivers a line until release is closed.
type blockingConsole struct {
	reading chan struct{}
	release chan struct{}
}

func (c *blockingConsole) ReadLine() (string, error) {
	close(c.reading)
	<-c.release
	return "", io.EOF
}

func (c *blockingConsole) WriteLine(string) {}

func TestSession_InvalidInputNoMotion(t *testing.T) {
	tr, _, act := newScripted(t, 1.0)
	con := &fakeConsole{lines: []string{"abc"}}
	s := NewSession(tr, con)

	require.NoError(t, s.Run(context.Background()))

	assert.Empty(t, act.speeds, "no command of any kind for invalid input")
	assert.Contains(t, con.output(), "Please enter a valid number.")
	assert.Contains(t, con.output(), "Remaining at current length.")
	_, ok := s.LastTarget()
	assert.False(t, ok)
}

func TestSession_InvalidInputKeepsPreviousTarget(t *testing.T) {
	tr, _, _ := newScripted(t, 1.0, 1.5, 2.0)
	s := NewSession(tr, &fakeConsole{})

	_, err := s.Move(context.Background(), "2.0")
	require.NoError(t, err)

	_, err = s.Move(context.Background(), "abc")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	target, ok := s.LastTarget()
	assert.True(t, ok)
	assert.Equal(t, 2.0, target)
}

func TestSession_ClampReports(t *testing.T) {
	tests := []struct {
		input   string
		path    []float64
		target  float64
		message []string
	}{
		{"5.0", []float64{2.0, 3.0, 3.8675}, 3.8675, []string{
			"The actuator is not that long.",
			"Moving to maximum length of 3.87in instead.",
		}},
		{"-1.0", []float64{2.0, 1.0, 0.0625}, 0.0625, []string{
			"The actuator cannot be that short.",
			"Moving to minimum length of 0.06in instead.",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tr, _, act := newScripted(t, tt.path...)
			con := &fakeConsole{}
			s := NewSession(tr, con)

			res, err := s.Move(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.target, res.Target)
			for _, msg := range tt.message {
				assert.Contains(t, con.out, msg)
			}
			assert.Equal(t, 0, act.speeds[len(act.speeds)-1])
		})
	}
}

func TestSession_Run(t *testing.T) {
	tr, _, act := newScripted(t, 1.0, 1.5, 2.0)
	con := &fakeConsole{lines: []string{"2"}}
	s := NewSession(tr, con)

	var moves []Result
	s.AfterMove = func(r Result) { moves = append(moves, r) }

	require.NoError(t, s.Run(context.Background()))

	require.Len(t, moves, 1)
	assert.Equal(t, []int{50, 0}, act.speeds)
	assert.Equal(t, "Current Length:    1.00in", con.out[0])
	assert.Equal(t, "Enter the desired stroke-length in inches, then press return:", con.out[1])
	assert.Contains(t, con.output(), "Stopped at 2.0")
	assert.Contains(t, con.output(), "for a desired length of 2.00in.")
}

func TestSession_CancelAtPrompt(t *testing.T) {
	tr, _, act := newScripted(t, 1.0)
	con := &blockingConsole{reading: make(chan struct{}), release: make(chan struct{})}
	t.Cleanup(func() { close(con.release) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- NewSession(tr, con).Run(ctx) }()

	<-con.reading
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run still waiting for input after cancel")
	}
	assert.Equal(t, []int{0}, act.speeds, "motor stopped, never started")
}

func TestSession_ReadError(t *testing.T) {
	tr, _, _ := newScripted(t, 1.0)
	broken := errors.New("serial closed")
	s := NewSession(tr, &fakeConsole{err: broken})

	assert.ErrorIs(t, s.Run(context.Background()), broken)
}

func TestSession_DriverFault(t *testing.T) {
	ctrl := gomock.NewController(t)
	sensor := NewMockSensor(ctrl)
	act := NewMockActuator(ctrl)

	cfg := testConfig()
	cal, err := cfg.Calibration()
	require.NoError(t, err)

	boom := errors.New("adc gone")
	gomock.InOrder(
		sensor.EXPECT().Read(gomock.Any()).Return(cal.ToRaw(1.0), nil),
		sensor.EXPECT().Read(gomock.Any()).Return(cal.ToRaw(1.0), nil),
		act.EXPECT().SetSpeed(gomock.Any(), 50).Return(nil),
		sensor.EXPECT().Read(gomock.Any()).Return(0, boom),
		act.EXPECT().SetSpeed(gomock.Any(), 0).Return(nil),
	)

	tr, err := New(cfg, sensor, act)
	require.NoError(t, err)
	con := &fakeConsole{lines: []string{"3", "1"}}

	err = NewSession(tr, con).Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, con.out, "Error. Stopping motors.")
	assert.Equal(t, []string{"1"}, con.lines, "session ends at the fault")
}

func TestSession_FaultBeforePrompt(t *testing.T) {
	ctrl := gomock.NewController(t)
	sensor := NewMockSensor(ctrl)
	act := NewMockActuator(ctrl)

	boom := errors.New("adc gone")
	gomock.InOrder(
		sensor.EXPECT().Read(gomock.Any()).Return(0, boom),
		act.EXPECT().SetSpeed(gomock.Any(), 0).Return(nil),
	)

	tr, err := New(testConfig(), sensor, act)
	require.NoError(t, err)

	err = NewSession(tr, &fakeConsole{lines: []string{"2"}}).Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, IsDriverFault(err))
}
