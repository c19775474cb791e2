package pong

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNetwork struct {
	out []float64
	err error
	in  [][]float64
}

func (f *fakeNetwork) Activate(inputs []float64) ([]float64, error) {
	f.in = append(f.in, inputs)
	return f.out, f.err
}

func TestArgmax(t *testing.T) {
	cases := []struct {
		scores []float64
		want   Action
	}{
		{[]float64{0.5, 0.5, 0.5}, Stay},
		{[]float64{0, 1, 0}, MoveUp},
		{[]float64{0, 0, 2}, MoveDown},
		{[]float64{0, 1, 1}, MoveUp},
		{[]float64{-3, -2, -1}, MoveDown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Argmax(tc.scores), "%v", tc.scores)
	}
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "stay", Stay.String())
	assert.Equal(t, "up", MoveUp.String())
	assert.Equal(t, "down", MoveDown.String())
	assert.Equal(t, "Action(7)", Action(7).String())
}

func TestNetworkController(t *testing.T) {
	net := &fakeNetwork{out: []float64{0.1, 0.2, 0.9}}
	c := NetworkController{Net: net}

	action, err := c.Decide(Observation{PaddleY: 1, BallDistance: 2, BallY: 3})
	require.NoError(t, err)
	assert.Equal(t, MoveDown, action)
	assert.Equal(t, [][]float64{{1, 2, 3}}, net.in)
}

func TestNetworkControllerErrors(t *testing.T) {
	_, err := NetworkController{Net: &fakeNetwork{out: []float64{1, 2}}}.Decide(Observation{})
	assert.ErrorContains(t, err, "2 outputs")

	boom := errors.New("boom")
	_, err = NetworkController{Net: &fakeNetwork{err: boom}}.Decide(Observation{})
	assert.ErrorIs(t, err, boom)
}

func TestTracker(t *testing.T) {
	tr := NewTracker()
	// Paddle at y=200 has its centre at 250.
	cases := []struct {
		ballY float64
		want  Action
	}{
		{100, MoveUp},
		{245, MoveUp},
		{246, Stay},
		{250, Stay},
		{254, Stay},
		{255, MoveDown},
		{400, MoveDown},
	}
	for _, tc := range cases {
		got, err := tr.Decide(Observation{PaddleY: 200, BallY: tc.ballY})
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "ball at %v", tc.ballY)
	}
}

func TestStill(t *testing.T) {
	action, err := Still{}.Decide(Observation{BallY: 0})
	require.NoError(t, err)
	assert.Equal(t, Stay, action)
}
