package listing

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"stayfinder/internal/domains/listing/model/dto"
	"stayfinder/shared"
	"stayfinder/shared/constant"
	"stayfinder/shared/failure"
	"strings"
)

const (
	formTitle        = "title"
	formDescription  = "description"
	formLocation     = "location"
	formNightlyPrice = "nightly_price"
	formMaxGuests    = "max_guests"
	formBedrooms     = "bedrooms"
	formBathrooms    = "bathrooms"
	formAmenities    = "amenities"
	formImages       = "images"
)

func parseCreateForm(r *http.Request) (dto.CreateListingRequest, error) {
	req := dto.CreateListingRequest{}

	if err := r.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		return req, failure.BadRequest(fmt.Errorf("failed to parse multipart form: %w", err)) // nolint:wrapcheck
	}

	req.Title = strings.TrimSpace(r.FormValue(formTitle))
	req.Description = strings.TrimSpace(r.FormValue(formDescription))
	req.Location = strings.TrimSpace(r.FormValue(formLocation))
	req.NightlyPrice = r.FormValue(formNightlyPrice)
	req.Amenities = amenities(r)

	var err error

	for field, target := range map[string]*int{formMaxGuests: &req.MaxGuests, formBedrooms: &req.Bedrooms, formBathrooms: &req.Bathrooms} {
		if *target, err = formInt(r, field); err != nil {
			return req, err
		}
	}

	if req.Images, err = images(r.MultipartForm); err != nil {
		return req, err
	}

	return req, nil
}

// parseUpdateForm reads only the fields present in the form.
func parseUpdateForm(r *http.Request) (dto.UpdateListingRequest, error) {
	req := dto.UpdateListingRequest{}

	if err := r.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		return req, failure.BadRequest(fmt.Errorf("failed to parse multipart form: %w", err)) // nolint:wrapcheck
	}

	req.Title = strings.TrimSpace(r.FormValue(formTitle))
	req.Description = strings.TrimSpace(r.FormValue(formDescription))
	req.Location = strings.TrimSpace(r.FormValue(formLocation))
	req.NightlyPrice = r.FormValue(formNightlyPrice)

	if _, ok := r.MultipartForm.Value[formAmenities]; ok {
		req.Amenities = amenities(r)
	}

	for field, target := range map[string]**int{formMaxGuests: &req.MaxGuests, formBedrooms: &req.Bedrooms, formBathrooms: &req.Bathrooms} {
		if r.FormValue(field) == constant.Empty {
			continue
		}

		n, err := formInt(r, field)
		if err != nil {
			return req, err
		}

		*target = &n
	}

	var err error
	if req.Images, err = images(r.MultipartForm); err != nil {
		return req, err
	}

	return req, nil
}

func formInt(r *http.Request, field string) (int, error) {
	raw := r.FormValue(field)
	if raw == constant.Empty {
		return 0, nil
	}

	n, err := shared.ConvertStringToInt(raw)
	if err != nil {
		return 0, failure.BadRequestFromString(field + " must be a number") // nolint:wrapcheck
	}

	return n, nil
}

// amenities accepts repeated fields as well as a comma separated list.
func amenities(r *http.Request) []string {
	res := []string{}

	for _, raw := range r.MultipartForm.Value[formAmenities] {
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != constant.Empty {
				res = append(res, item)
			}
		}
	}

	return res
}

func images(form *multipart.Form) ([]dto.Image, error) {
	if form == nil {
		return nil, nil
	}

	headers := form.File[formImages]
	res := make([]dto.Image, 0, len(headers))

	for _, header := range headers {
		image, err := readImage(header)
		if err != nil {
			return nil, err
		}

		res = append(res, image)
	}

	return res, nil
}

func readImage(header *multipart.FileHeader) (dto.Image, error) {
	file, err := header.Open()
	if err != nil {
		return dto.Image{}, failure.BadRequest(fmt.Errorf("failed to open %s: %w", header.Filename, err)) // nolint:wrapcheck
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return dto.Image{}, failure.BadRequest(fmt.Errorf("failed to read %s: %w", header.Filename, err)) // nolint:wrapcheck
	}

	return dto.Image{
		Name:        header.Filename,
		ContentType: header.Header.Get(constant.RequestHeaderContentType),
		Data:        data,
	}, nil
}
