package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/gdfprep/internal/artifact"
	"github.com/tensorplex-labs/gdfprep/internal/config"
	"github.com/tensorplex-labs/gdfprep/internal/features"
	"github.com/tensorplex-labs/gdfprep/internal/kernel"
	"github.com/tensorplex-labs/gdfprep/internal/preprocess"
	"github.com/tensorplex-labs/gdfprep/internal/utils/logger"
	"github.com/tensorplex-labs/gdfprep/internal/weighting"
)

var (
	listPath   = flag.String("list", "./str_list", "file listing one record path per line")
	recordRoot = flag.String("root", "", "directory relative record paths are resolved against")
	typesFlag  = flag.String("types", "", "comma separated atom types, e.g. Si,O")
	dimsFlag   = flag.String("dims", "", "feature width per atom type, e.g. Si=70,O=70 or 70 for all")
	featureTag = flag.String("tag", "x", "feature field to aggregate from each record")
	calcScale  = flag.Bool("calc-scale", true, "compute scale factors instead of loading them")
	weightMode = flag.String("weights", "none", "atomic weights: none, compute or load")
	weightsID  = flag.String("weights-id", "", "artifact id to load weights from (defaults to WEIGHT_ARTIFACT)")
	plotBins   = flag.Int("bins", 20, "histogram bins for the weight report, 0 disables it")
)

func main() {
	logger.Init()
	log.Info().Msg("Starting preprocessing...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal().Stack().Err(err).Msg("preprocessing failed")
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		return fmt.Errorf("load environment configuration: %w", err)
	}

	atomTypes, err := parseAtomTypes(*typesFlag)
	if err != nil {
		return err
	}
	dims, err := parseDims(*dimsFlag, atomTypes)
	if err != nil {
		return err
	}
	source, err := weightSource(cfg, *weightMode, *weightsID)
	if err != nil {
		return err
	}

	ids, err := features.ReadRecordList(*listPath)
	if err != nil {
		return fmt.Errorf("read record list: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	p := preprocess.NewPipeline(
		features.FileLoader{Root: *recordRoot},
		store,
		preprocess.WithScaleArtifact(cfg.ScaleArtifact),
		preprocess.WithWeightArtifact(cfg.WeightArtifact),
	)

	res, err := p.Preprocess(ctx, preprocess.Request{
		RecordIDs:    ids,
		AtomTypes:    atomTypes,
		FeatureTag:   *featureTag,
		Dims:         dims,
		ComputeScale: *calcScale,
		Weights:      source,
	})
	if err != nil {
		return err
	}

	report(res, atomTypes, *plotBins)
	return nil
}

func openStore(ctx context.Context, cfg *config.AppConfig) (*artifact.Store, func(), error) {
	if cfg.Backend == config.BackendSQLite {
		backend, err := artifact.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := backend.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close artifact database")
			}
		}
		return artifact.NewStore(backend, cfg.Compress), closeFn, nil
	}
	return artifact.NewStore(artifact.FileBackend{Dir: cfg.Dir}, cfg.Compress), func() {}, nil
}

func weightSource(cfg *config.AppConfig, mode, id string) (preprocess.WeightSource, error) {
	switch mode {
	case "none", "":
		return preprocess.NoWeights{}, nil
	case "load":
		if id == "" {
			id = cfg.WeightArtifact
		}
		return preprocess.LoadWeights{ArtifactID: id}, nil
	case "compute":
		src := preprocess.ComputeWeights{
			Sigma: cfg.Sigma,
			Kernel: kernel.Blocked{
				BlockSize: cfg.BlockSize,
				Workers:   cfg.Workers,
				Progress: func(done, total int) {
					log.Debug().Int("done", done).Int("total", total).Msg("density blocks")
				},
			},
		}
		if cfg.UseModifier {
			src.Modifier = weighting.ModifiedSigmoid(weighting.SigmoidParams{B: cfg.ModifierB, C: cfg.ModifierC})
		}
		return src, nil
	}
	return nil, fmt.Errorf("unknown weights mode %q, expected none, compute or load", mode)
}

func report(res *preprocess.Result, atomTypes []features.AtomType, bins int) {
	for _, t := range atomTypes {
		f := res.Scales[t]
		log.Info().Str("atomType", string(t)).Int("features", len(f.Center)).Msg("scale factor ready")
	}

	for _, t := range atomTypes {
		w, ok := res.Weights[t]
		if !ok {
			continue
		}
		s, err := weighting.Summarize(w)
		if err != nil {
			log.Warn().Err(err).Str("atomType", string(t)).Msg("failed to summarize weights")
			continue
		}
		log.Info().Str("atomType", string(t)).Int("samples", s.Samples).
			Float64("min", s.Min).Float64("p05", s.P05).Float64("median", s.Median).
			Float64("p95", s.P95).Float64("max", s.Max).Msg("atomic weights")

		if bins > 0 {
			weighting.PlotHistogramTerminal(os.Stdout, weightColumn(w), bins, fmt.Sprintf("%s weights", t))
		}
	}
}
