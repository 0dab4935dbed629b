package forecast

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/kimyeonkyu7453/SPP/pkg/logger"
)

// TrainerConfig controls the epoch loop.
type TrainerConfig struct {
	MaxEpochs int
	Patience  int
	BatchSize int
	Seed      int64
}

func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{MaxEpochs: 100, Patience: 20, BatchSize: 64, Seed: 42}
}

// EpochReport is handed to observers after every completed epoch.
type EpochReport struct {
	Epoch     int // zero based
	MaxEpochs int
	TrainLoss float64
	ValLoss   float64
	Improved  bool
	Progress  int // round(100*(Epoch+1)/MaxEpochs)
}

// EpochObserver is notified synchronously, on the training goroutine, after each epoch.
type EpochObserver interface {
	OnEpochEnd(ctx context.Context, report EpochReport)
}

type ObserverFunc func(ctx context.Context, report EpochReport)

func (f ObserverFunc) OnEpochEnd(ctx context.Context, report EpochReport) {
	f(ctx, report)
}

// TrainResult describes the snapshot that was restored into the model.
type TrainResult struct {
	Epochs       int           `json:"epochs"`
	BestEpoch    int           `json:"best_epoch"`
	BestValLoss  float64       `json:"best_val_loss"`
	FinalLoss    float64       `json:"final_train_loss"`
	StoppedEarly bool          `json:"stopped_early"`
	Duration     time.Duration `json:"duration"`
}

type Trainer struct {
	cfg       TrainerConfig
	store     CheckpointStore
	observers []EpochObserver
	log       *logger.Logger
}

type TrainerOption func(*Trainer)

func WithObserver(o EpochObserver) TrainerOption {
	return func(t *Trainer) { t.observers = append(t.observers, o) }
}

func WithTrainerLogger(l *logger.Logger) TrainerOption {
	return func(t *Trainer) { t.log = l }
}

func NewTrainer(cfg TrainerConfig, store CheckpointStore, opts ...TrainerOption) (*Trainer, error) {
	if cfg.MaxEpochs <= 0 {
		return nil, fmt.Errorf("max epochs must be positive, got %d", cfg.MaxEpochs)
	}
	if cfg.Patience <= 0 {
		return nil, fmt.Errorf("patience must be positive, got %d", cfg.Patience)
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", cfg.BatchSize)
	}
	if store == nil {
		return nil, fmt.Errorf("checkpoint store is required")
	}
	t := &Trainer{cfg: cfg, store: store, log: logger.NewNop()}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Progress is the percentage reported after the zero-based epoch completes.
func Progress(epoch, maxEpochs int) int {
	return int(math.Round(100 * float64(epoch+1) / float64(maxEpochs)))
}

// Train fits model on train, monitoring validation loss. Whenever validation loss is strictly
// below the best seen so far the weights are written to slot. Training stops after MaxEpochs
// or once Patience consecutive epochs fail to improve. The best snapshot is then loaded back
// into model, so the returned model is the best one, not the last one.
func (t *Trainer) Train(ctx context.Context, model Trainable, slot string, train, validation []Example) (_ *TrainResult, err error) {
	if len(validation) == 0 {
		return nil, ErrEmptyValidationSet
	}
	if len(train) == 0 {
		return nil, fmt.Errorf("no training examples: %w", ErrInsufficientHistory)
	}
	// A failed run must not leave its slot behind; ctx may already be canceled here.
	defer func() {
		if err == nil {
			return
		}
		if derr := t.store.Delete(context.Background(), slot); derr != nil {
			t.log.Warn("failed to delete checkpoint", logger.String("slot", slot), logger.Error(derr))
		}
	}()

	start := time.Now()
	rng := rand.New(rand.NewSource(t.cfg.Seed))
	order := make([]Example, len(train))
	copy(order, train)

	res := &TrainResult{BestEpoch: -1, BestValLoss: math.Inf(1)}
	wait := 0
	for epoch := 0; epoch < t.cfg.MaxEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("training interrupted at epoch %d: %w", epoch, err)
		}

		Shuffle(order, rng)
		var sum float64
		for _, batch := range Batches(order, t.cfg.BatchSize) {
			loss, err := model.TrainBatch(batch)
			if err != nil {
				return nil, fmt.Errorf("epoch %d: %w", epoch, err)
			}
			sum += loss * float64(len(batch))
		}
		trainLoss := sum / float64(len(order))

		valLoss, err := model.Evaluate(validation)
		if err != nil {
			return nil, fmt.Errorf("epoch %d validation: %w", epoch, err)
		}

		improved := valLoss < res.BestValLoss
		if improved {
			snap, err := model.Snapshot()
			if err != nil {
				return nil, fmt.Errorf("snapshot epoch %d: %w", epoch, err)
			}
			if err := t.store.Save(ctx, slot, snap); err != nil {
				return nil, fmt.Errorf("save checkpoint %s: %w", slot, err)
			}
			res.BestValLoss, res.BestEpoch = valLoss, epoch
			wait = 0
		} else {
			wait++
		}
		res.Epochs = epoch + 1
		res.FinalLoss = trainLoss

		report := EpochReport{
			Epoch:     epoch,
			MaxEpochs: t.cfg.MaxEpochs,
			TrainLoss: trainLoss,
			ValLoss:   valLoss,
			Improved:  improved,
			Progress:  Progress(epoch, t.cfg.MaxEpochs),
		}
		t.log.Debug("epoch finished",
			logger.Int("epoch", epoch+1),
			logger.Float64("loss", trainLoss),
			logger.Float64("val_loss", valLoss),
			logger.Bool("improved", improved),
		)
		for _, o := range t.observers {
			o.OnEpochEnd(ctx, report)
		}

		if wait >= t.cfg.Patience {
			res.StoppedEarly = true
			break
		}
	}

	if res.BestEpoch < 0 {
		return nil, ErrNoFiniteLoss
	}

	data, err := t.store.Load(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint %s: %w", slot, err)
	}
	if err := model.Restore(data); err != nil {
		return nil, fmt.Errorf("restore checkpoint %s: %w", slot, err)
	}
	if err := t.store.Delete(ctx, slot); err != nil {
		t.log.Warn("failed to delete checkpoint", logger.String("slot", slot), logger.Error(err))
	}
	res.Duration = time.Since(start)

	t.log.Info("training finished",
		logger.Int("epochs", res.Epochs),
		logger.Int("best_epoch", res.BestEpoch+1),
		logger.Float64("best_val_loss", res.BestValLoss),
		logger.Bool("stopped_early", res.StoppedEarly),
		logger.Duration("duration_ms", res.Duration),
	)
	return res, nil
}
