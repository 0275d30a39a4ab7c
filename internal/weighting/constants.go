package weighting

// DefaultSigma is the kernel bandwidth used when none is configured.
const DefaultSigma = 0.02

func DefaultSigmoidParams() SigmoidParams {
	return SigmoidParams{
		B: 150.0,
		C: 1.0,
	}
}
