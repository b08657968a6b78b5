package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"stayfinder/config"
	"stayfinder/infras/otel"
	"stayfinder/infras/s3"
	availabilityService "stayfinder/internal/domains/availability/service"
	bookingRepo "stayfinder/internal/domains/booking/repository"
	"stayfinder/internal/domains/listing/model"
	"stayfinder/internal/domains/listing/model/dto"
	"stayfinder/internal/domains/listing/repository"
	"stayfinder/shared"
	"stayfinder/shared/cache"
	"stayfinder/shared/constant"
	"stayfinder/shared/daterange"
	gDto "stayfinder/shared/dto"
	"stayfinder/shared/failure"
	"stayfinder/shared/retry"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	cacheGetListing    = "listing:get"
	cacheSearchListing = "listing:search"
	cacheMineListing   = "listing:mine"

	defaultCacheTTL     = 300
	defaultImageMaxSize = 1600
	defaultImageQuality = 85
	defaultMaxImages    = 10

	imageExtension = ".jpg"
)

var (
	ErrDeleteImages = errors.New("failed to delete listing images")

	sortableFields = []string{
		model.FieldCreatedAt,
		model.FieldNightlyPrice,
		model.FieldTitle,
		model.FieldMaxGuests,
	}
)

type Listing interface {
	Create(ctx context.Context, hostID string, req dto.CreateListingRequest) (dto.ListingResponse, error)
	Get(ctx context.Context, id string) (dto.ListingResponse, error)
	Search(ctx context.Context, params gDto.QueryParams, query dto.SearchQuery) (dto.GetListingsResponse, error)
	Mine(ctx context.Context, hostID string, params gDto.QueryParams) (dto.GetListingsResponse, error)
	Update(ctx context.Context, id, actorID string, req dto.UpdateListingRequest) (dto.ListingResponse, error)
	Delete(ctx context.Context, id, actorID string) error
}

type serviceImpl struct {
	repo        repository.Listing
	bookingRepo bookingRepo.Booking
	cfg         *config.Config
	cache       cache.RedisCache
	otel        otel.Otel
	s3          s3.S3
}

func New(repo repository.Listing, bookingRepo bookingRepo.Booking, cfg *config.Config, cache cache.RedisCache, otel otel.Otel, s3 s3.S3) Listing {
	return &serviceImpl{
		repo:        repo,
		bookingRepo: bookingRepo,
		cfg:         cfg,
		cache:       cache,
		otel:        otel,
		s3:          s3,
	}
}

func (s *serviceImpl) Create(ctx context.Context, hostID string, req dto.CreateListingRequest) (res dto.ListingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(&err)

	if _, err = dto.ParsePrice(req.NightlyPrice); err != nil {
		return res, err // nolint:wrapcheck
	}

	urls, err := s.uploadImages(ctx, req.Images)
	if err != nil {
		return res, err
	}

	listing, err := req.ToModel(hostID, urls)
	if err != nil {
		return res, err // nolint:wrapcheck
	}

	if err = s.repo.Insert(ctx, listing); err != nil {
		log.Error().Err(err).Msg("failed to create listing")

		s.deleteImagesAsync(ctx, urls)

		return res, fmt.Errorf("failed to create listing: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheSearchListing)
		shared.InvalidateCaches(c, s.cache, shared.BuildCacheKey(cacheMineListing, hostID))
	}()

	res.FromModel(listing)

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.ListingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(&err)

	cacheKey := shared.BuildCacheKey(cacheGetListing, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for listing")

		return res, nil
	}

	listing, err := s.get(ctx, id)
	if err != nil {
		return res, err
	}

	res.FromModel(listing)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cacheTTL()); err != nil {
			log.Error().Err(err).Msg("failed to save listing to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Search(ctx context.Context, params gDto.QueryParams, query dto.SearchQuery) (res dto.GetListingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Search")
	defer scope.End()
	defer scope.TraceIfError(&err)

	filter, err := query.Filter()
	if err != nil {
		return res, err // nolint:wrapcheck
	}

	switch {
	case query.HasDates():
		dateRange, err := daterange.Parse(query.CheckIn, query.CheckOut)
		if err != nil {
			return res, err // nolint:wrapcheck
		}

		filter.Filters = append(filter.Filters, availabilityService.AvailableListingsFilter(dateRange))
	case query.CheckIn != constant.Empty || query.CheckOut != constant.Empty:
		return res, failure.BadRequestFromString("check_in and check_out must be given together") // nolint:wrapcheck
	}

	return s.list(ctx, cacheSearchListing, params, filter)
}

func (s *serviceImpl) Mine(ctx context.Context, hostID string, params gDto.QueryParams) (res dto.GetListingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Mine")
	defer scope.End()
	defer scope.TraceIfError(&err)

	filter := shared.FilterByID(hostID, model.FieldHostID, model.TableName)

	return s.list(ctx, shared.BuildCacheKey(cacheMineListing, hostID), params, filter)
}

func (s *serviceImpl) list(ctx context.Context, prefix string, params gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetListingsResponse, err error) {
	params = params.Restrict(model.TableName, model.FieldCreatedAt, sortableFields...)
	cacheKey := shared.BuildCacheKeyWithQuery(prefix, params, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for listings")

		return res, nil
	}

	total, err := retry.Read(ctx, func() (int, error) {
		return s.repo.Count(ctx, filter)
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to count listings")

		return res, fmt.Errorf("failed to count listings: %w", err)
	}

	listings, err := retry.Read(ctx, func() ([]model.Listing, error) {
		return s.repo.GetAll(ctx, params, filter)
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to get listings")

		return res, fmt.Errorf("failed to get listings: %w", err)
	}

	res.FromModels(listings, total, params.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cacheTTL()); err != nil {
			log.Error().Err(err).Msg("failed to save listings to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, id, actorID string, req dto.UpdateListingRequest) (res dto.ListingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(&err)

	listing, err := s.getOwned(ctx, id, actorID)
	if err != nil {
		return res, err
	}

	updatedFields, err := req.Fields(actorID)
	if err != nil {
		return res, err // nolint:wrapcheck
	}

	var (
		newImages []string
		oldImages []string
	)

	if len(req.Images) > 0 {
		if newImages, err = s.uploadImages(ctx, req.Images); err != nil {
			return res, err
		}

		oldImages = listing.Images
		updatedFields[model.FieldImages] = pq.StringArray(newImages)
	}

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	if err = s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update listing")

		s.deleteImagesAsync(ctx, newImages)

		return res, fmt.Errorf("failed to update listing: %w", err)
	}

	s.invalidate(ctx, listing)
	s.deleteImagesAsync(ctx, oldImages)

	updated, err := s.get(ctx, id)
	if err != nil {
		return res, err
	}

	res.FromModel(updated)

	return res, nil
}

func (s *serviceImpl) Delete(ctx context.Context, id, actorID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(&err)

	listing, err := s.getOwned(ctx, id, actorID)
	if err != nil {
		return err
	}

	active, err := retry.Read(ctx, func() (bool, error) {
		return s.bookingRepo.Exist(ctx, bookingRepo.ActiveFilter(id))
	})
	if err != nil {
		log.Error().Err(err).Str("listing_id", id).Msg("failed to check active bookings")

		return fmt.Errorf("failed to check active bookings: %w", err)
	}

	if active {
		return failure.Conflict("listing has pending or confirmed bookings") // nolint:wrapcheck
	}

	if err = s.repo.Delete(ctx, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to delete listing")

		return fmt.Errorf("failed to delete listing: %w", err)
	}

	s.invalidate(ctx, listing)
	s.deleteImagesAsync(ctx, listing.Images)

	return nil
}

func (s *serviceImpl) get(ctx context.Context, id string) (model.Listing, error) {
	listing, err := retry.Read(ctx, func() (model.Listing, error) {
		return s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to get listing")

		return listing, fmt.Errorf("failed to get listing: %w", err)
	}

	if listing.ID == constant.Empty {
		return listing, failure.NotFound("listing not found") // nolint:wrapcheck
	}

	return listing, nil
}

func (s *serviceImpl) getOwned(ctx context.Context, id, actorID string) (model.Listing, error) {
	listing, err := s.get(ctx, id)
	if err != nil {
		return listing, err
	}

	if !listing.IsOwnedBy(actorID) {
		return model.Listing{}, failure.NotAuthorized
	}

	return listing, nil
}

func (s *serviceImpl) invalidate(ctx context.Context, listing model.Listing) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetListing, listing.ID)); err != nil {
			log.Error().Err(err).Msg("failed to delete listing cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheSearchListing)
		shared.InvalidateCaches(c, s.cache, shared.BuildCacheKey(cacheMineListing, listing.HostID))
	}()
}

func (s *serviceImpl) uploadImages(ctx context.Context, images []dto.Image) ([]string, error) {
	if len(images) > s.maxImages() {
		return nil, failure.BadRequestFromString(fmt.Sprintf("a listing accepts at most %d images", s.maxImages())) // nolint:wrapcheck
	}

	urls := make([]string, 0, len(images))

	for _, image := range images {
		data, err := s.processImage(image)
		if err != nil {
			s.deleteImagesAsync(ctx, urls)

			return nil, err
		}

		url, err := s.s3.UploadFileBytes(ctx, model.EntityName, uuid.NewString()+imageExtension, constant.ContentTypeJPEG, data)
		if err != nil {
			log.Error().Err(err).Str("image", image.Name).Msg("failed to upload listing image")

			s.deleteImagesAsync(ctx, urls)

			return nil, fmt.Errorf("failed to upload listing image: %w", err)
		}

		urls = append(urls, url)
	}

	return urls, nil
}

// processImage bounds the picture to the configured box and re-encodes it as JPEG.
func (s *serviceImpl) processImage(image dto.Image) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(image.Data), imaging.AutoOrientation(true))
	if err != nil {
		log.Warn().Err(err).Str("image", image.Name).Msg("failed to decode listing image")

		return nil, failure.BadRequestFromString(fmt.Sprintf("image %q is not a valid picture", image.Name)) // nolint:wrapcheck
	}

	width, height, quality := s.imageSettings()

	var buf bytes.Buffer

	if err = imaging.Encode(&buf, imaging.Fit(src, width, height, imaging.Lanczos), imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode listing image: %w", err)
	}

	return buf.Bytes(), nil
}

func (s *serviceImpl) deleteImagesAsync(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}

	go func() {
		if err := s.deleteImages(context.WithoutCancel(ctx), urls); err != nil {
			log.Error().Err(err).Msg("failed to delete listing images")
		}
	}()
}

func (s *serviceImpl) deleteImages(ctx context.Context, urls []string) error {
	var failed int

	for _, url := range urls {
		key := s.s3.GetObjectKeyFromURL(url)
		if key == constant.Empty {
			log.Warn().Str("url", url).Msg("failed to extract object key from URL")

			continue
		}

		if err := s.s3.DeleteObject(ctx, key); err != nil {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d images", ErrDeleteImages, failed)
	}

	return nil
}

func (s *serviceImpl) cacheTTL() int {
	if s.cfg.Cache.TTL <= 0 {
		return defaultCacheTTL
	}

	return s.cfg.Cache.TTL
}

func (s *serviceImpl) maxImages() int {
	if s.cfg.Listing.MaxImages <= 0 {
		return defaultMaxImages
	}

	return s.cfg.Listing.MaxImages
}

func (s *serviceImpl) imageSettings() (width, height, quality int) {
	width, height, quality = s.cfg.Listing.ImageMaxWidth, s.cfg.Listing.ImageMaxHeight, s.cfg.Listing.ImageQuality

	if width <= 0 {
		width = defaultImageMaxSize
	}

	if height <= 0 {
		height = defaultImageMaxSize
	}

	if quality <= 0 || quality > 100 {
		quality = defaultImageQuality
	}

	return width, height, quality
}
