package neat

import (
	"fmt"
	"math"
)

// ActivationType is a node's transfer function.
type ActivationType func(input float64, params ...float64) float64

// ActivationFunctions maps activation_options names to functions.
var ActivationFunctions = map[string]ActivationType{
	"sigmoid":  Sigmoid,
	"tanh":     Tanh,
	"relu":     ReLU,
	"identity": Identity,
	"clamped":  Clamped,
	"gaussian": Gaussian,
	"absolute": Absolute,
	"abs":      Absolute,
	"sine":     Sine,
	"cosine":   Cosine,
	"inv":      Inv,
	"log":      Log,
	"exp":      Exp,
	"hat":      Hat,
	"square":   Square,
	"cube":     Cube,
	"softplus": Softplus,
}

// GetActivation retrieves an activation function by name.
func GetActivation(name string) (ActivationType, error) {
	if fn, ok := ActivationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown activation function: %s", name)
}

// sigmoidSteepness sharpens the logistic curve. The node response is
// applied to the input before activation, so this stays fixed.
const sigmoidSteepness = 4.9

// Sigmoid is the logistic function with a fixed steepness. The input is
// clamped so paddle-scale inputs (hundreds of pixels) cannot overflow.
func Sigmoid(x float64, params ...float64) float64 {
	z := clamp(sigmoidSteepness*x, -60.0, 60.0)
	return 1.0 / (1.0 + math.Exp(-z))
}

func Tanh(x float64, params ...float64) float64 { return math.Tanh(x) }

func ReLU(x float64, params ...float64) float64 { return math.Max(0, x) }

func Identity(x float64, params ...float64) float64 { return x }

// Clamped limits the output to [-1, 1].
func Clamped(x float64, params ...float64) float64 { return clamp(x, -1.0, 1.0) }

func Gaussian(x float64, params ...float64) float64 {
	z := clamp(x, -3.4, 3.4)
	return math.Exp(-5.0 * z * z)
}

func Absolute(x float64, params ...float64) float64 { return math.Abs(x) }

func Sine(x float64, params ...float64) float64 { return math.Sin(x) }

func Cosine(x float64, params ...float64) float64 { return math.Cos(x) }

// Inv returns 1/x, and 0 for x == 0.
func Inv(x float64, params ...float64) float64 {
	if x == 0.0 {
		return 0.0
	}
	return 1.0 / x
}

// Log is the natural logarithm with its input floored at 1e-7.
func Log(x float64, params ...float64) float64 {
	return math.Log(math.Max(1e-7, x))
}

// Exp is e^x with x clamped to [-60, 60].
func Exp(x float64, params ...float64) float64 {
	return math.Exp(clamp(x, -60.0, 60.0))
}

// Hat is a triangular pulse of width 2 centred on 0.
func Hat(x float64, params ...float64) float64 {
	return math.Max(0.0, 1.0-math.Abs(x))
}

func Square(x float64, params ...float64) float64 { return x * x }

func Cube(x float64, params ...float64) float64 { return x * x * x }

// Softplus is a smooth ReLU.
func Softplus(x float64, params ...float64) float64 {
	z := clamp(5.0*x, -60.0, 60.0)
	return 0.2 * math.Log(1+math.Exp(z))
}
