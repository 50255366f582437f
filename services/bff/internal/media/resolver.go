package media

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// CachingResolver memoizes successful resolutions of Next.
type CachingResolver struct {
	Next  Resolver
	Cache Cache
	Log   *zap.Logger
}

func (r *CachingResolver) Resolve(ctx context.Context, userURL string) (Source, error) {
	key := "media:v1:" + strings.TrimSpace(userURL)
	var cached Source
	if ok, err := r.Cache.Get(ctx, key, &cached); err == nil && ok {
		return cached, nil
	} else if err != nil && r.Log != nil {
		r.Log.Warn("media cache get", zap.Error(err))
	}

	src, err := r.Next.Resolve(ctx, userURL)
	if err != nil {
		return Source{}, err
	}
	if err := r.Cache.Set(ctx, key, src); err != nil && r.Log != nil {
		r.Log.Warn("media cache set", zap.Error(err))
	}
	return src, nil
}

// FallbackResolver never fails: when Primary cannot resolve the URL the
// user URL is played directly with a guessed content type.
type FallbackResolver struct {
	Primary Resolver
	Log     *zap.Logger
}

func (r *FallbackResolver) Resolve(ctx context.Context, userURL string) (Source, error) {
	if r.Primary != nil {
		src, err := r.Primary.Resolve(ctx, userURL)
		if err == nil {
			return src, nil
		}
		if r.Log != nil {
			r.Log.Info("media resolution failed, using direct url", zap.String("url", userURL), zap.Error(err))
		}
	}
	return Direct(userURL), nil
}
