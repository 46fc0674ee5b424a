package classifier

import (
	"fmt"
	"math"
)

// Loss evaluates a per-label loss and its gradient with respect to the logit.
// y is the 0/1 target; w is the positive class weight for that label.
type Loss interface {
	// Eval returns (loss, dLoss/dLogit) for one label.
	Eval(z, y, w float64) (float64, float64)

	// Name identifies the loss for logs and run summaries.
	Name() string
}

// NewLoss builds a loss from its strategy name.
func NewLoss(strategy string, focalGamma, focalAlpha float64) (Loss, error) {
	switch strategy {
	case "weighted_bce", "":
		return WeightedBCE{}, nil
	case "focal":
		return Focal{Gamma: focalGamma, Alpha: focalAlpha}, nil
	default:
		return nil, fmt.Errorf("unknown loss strategy: %s (use 'weighted_bce' or 'focal')", strategy)
	}
}

// WeightedBCE is binary cross-entropy with the positive term scaled by the
// per-label class weight. Rare emotions contribute proportionally more to
// the gradient, which keeps the model from collapsing to all-negative
// predictions.
type WeightedBCE struct{}

// Eval computes the loss on logits directly. log(p) and log(1-p) come from
// logSigmoid, so extreme logits yield finite values.
func (WeightedBCE) Eval(z, y, w float64) (float64, float64) {
	p := Sigmoid(z)
	if y > 0 {
		// L = -w*log(p), dL/dz = -w*(1-p)
		return -w * logSigmoid(z), -w * (1 - p)
	}
	// L = -log(1-p), dL/dz = p
	return -logSigmoid(-z), p
}

func (WeightedBCE) Name() string { return "weighted_bce" }

// Focal implements focal loss: FL = -alpha * (1-p_t)^gamma * log(p_t).
// The (1-p_t)^gamma factor shrinks the contribution of examples the model
// already classifies confidently, concentrating learning on hard ones.
// Gamma=0 reduces to alpha-scaled BCE. The class weight argument is ignored;
// alpha plays that role.
type Focal struct {
	Gamma float64
	Alpha float64
}

// Eval computes focal loss and its analytic logit gradient.
func (f Focal) Eval(z, y, _ float64) (float64, float64) {
	p := Sigmoid(z)
	if y > 0 {
		logP := logSigmoid(z)
		loss := -f.Alpha * math.Pow(1-p, f.Gamma) * logP
		grad := f.Alpha*f.Gamma*p*logP*math.Pow(1-p, f.Gamma) - f.Alpha*math.Pow(1-p, f.Gamma+1)
		return loss, grad
	}
	logQ := logSigmoid(-z) // log(1-p)
	loss := -f.Alpha * math.Pow(p, f.Gamma) * logQ
	grad := -f.Alpha*f.Gamma*(1-p)*logQ*math.Pow(p, f.Gamma) + f.Alpha*math.Pow(p, f.Gamma+1)
	return loss, grad
}

func (f Focal) Name() string { return "focal" }
