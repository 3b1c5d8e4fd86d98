package schedule

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/km-arc/go-autocrud/framework/container"
	"github.com/km-arc/go-autocrud/framework/entity"
	"github.com/km-arc/go-autocrud/framework/generator"
)

// SchemaJobName is the name the schema job is scheduled under.
const SchemaJobName = "configure-schema"

// SchemaJob configures the storage of every binding tagged
// generator.TagSchema.
type SchemaJob struct {
	root *container.Container
	log  *zap.Logger
}

// NewSchemaJob returns a job over the bindings of c.
func NewSchemaJob(c *container.Container, log *zap.Logger) *SchemaJob {
	if log == nil {
		log = zap.NewNop()
	}
	return &SchemaJob{root: c, log: log.Named("schema")}
}

// Run resolves the tagged bindings in a fresh scope and calls
// ConfigureSchema on each one. All of them run; failures are combined.
func (j *SchemaJob) Run(ctx context.Context) error {
	keys := j.root.TaggedKeys(generator.TagSchema)
	if len(keys) == 0 {
		j.log.Error("no schema configurers registered, storage is not prepared")
		return nil
	}

	scope := j.root.Scope(ctx)
	var err error
	for _, key := range keys {
		if kerr := j.configure(ctx, scope, key); kerr != nil {
			j.log.Error("configuring schema", zap.String("binding", key), zap.Error(kerr))
			err = multierr.Append(err, kerr)
			continue
		}
		j.log.Info("schema configured", zap.String("binding", key))
	}
	return err
}

func (j *SchemaJob) configure(ctx context.Context, scope *container.Container, key string) error {
	inst, err := scope.Make(key)
	if err != nil {
		return err
	}
	sc, ok := inst.(entity.SchemaConfigurer)
	if !ok {
		return errors.Errorf("schedule: %s resolved to %T, which does not configure a schema", key, inst)
	}
	return errors.Wrapf(sc.ConfigureSchema(ctx), "schedule: %s", key)
}

// Schedule registers the job on s under SchemaJobName. An empty spec
// schedules nothing.
func (j *SchemaJob) Schedule(s *Scheduler, spec string) error {
	if spec == "" {
		return nil
	}
	return s.Add(SchemaJobName, spec, j.Run)
}
