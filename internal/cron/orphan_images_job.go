package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abhijit5011/Electromart/pkg/logger"
	"github.com/Abhijit5011/Electromart/pkg/storage"
)

const defaultOrphanImageGrace = 24 * time.Hour

type imageBucket interface {
	ListModifiedBefore(ctx context.Context, cutoff time.Time) ([]storage.Object, error)
	Delete(ctx context.Context, name string) error
}

type imageReferences interface {
	ImagePaths(ctx context.Context) (map[string]struct{}, error)
}

// OrphanImagesJobParams configure the image sweep.
type OrphanImagesJobParams struct {
	Logger   *logger.Logger
	Bucket   imageBucket
	Products imageReferences
	// Grace protects uploads whose product form has not been saved yet.
	Grace time.Duration
}

type orphanImagesJob struct {
	logg     *logger.Logger
	bucket   imageBucket
	products imageReferences
	grace    time.Duration
	now      func() time.Time
}

func NewOrphanImagesJob(params OrphanImagesJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Bucket == nil {
		return nil, errors.New("bucket required")
	}
	if params.Products == nil {
		return nil, errors.New("product repository required")
	}
	grace := params.Grace
	if grace <= 0 {
		grace = defaultOrphanImageGrace
	}
	return &orphanImagesJob{
		logg:     params.Logger,
		bucket:   params.Bucket,
		products: params.Products,
		grace:    grace,
		now:      time.Now,
	}, nil
}

func (j *orphanImagesJob) Name() string { return "orphan-images" }

// Run deletes stored images older than the grace period that no product lists.
// References are read after listing so an image attached mid-run is never removed.
func (j *orphanImagesJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.grace)
	candidates, err := j.bucket.ListModifiedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list images: %w", err)
	}
	if len(candidates) == 0 {
		return nil
	}

	refs, err := j.products.ImagePaths(ctx)
	if err != nil {
		return fmt.Errorf("load image references: %w", err)
	}
	referenced := make(map[string]struct{}, len(refs))
	for ref := range refs {
		referenced[storage.ObjectName(ref)] = struct{}{}
	}

	var deleted int
	for _, obj := range candidates {
		if _, ok := referenced[obj.Name]; ok {
			continue
		}
		if err := j.bucket.Delete(ctx, obj.Name); err != nil {
			return fmt.Errorf("delete %s: %w", obj.Name, err)
		}
		deleted++
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"candidates": len(candidates),
		"deleted":    deleted,
	}), "orphan images swept")
	return nil
}
