package dataservice

import (
	"context"
	"net/url"
	"strconv"

	"souk-backend/internal/domain"
	"souk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const defaultSlideSeconds = 5

type SlidesData struct {
	Slides []domain.HeroSlide `json:"slides"`
}

type CTAData struct {
	CTA domain.CTA `json:"cta"`
}

type FooterData struct {
	Footer domain.Footer `json:"footer"`
}

type LogoData struct {
	Logo domain.Logo `json:"logo"`
}

// CTAUpdate replaces the CTA text fields that are non-empty. Image, when set,
// becomes the new CTA image.
type CTAUpdate struct {
	Fields domain.CTA
	Image  *Upload
}

// LogoUpdate sets either logo variant from a URL or an upload. Uploads win.
type LogoUpdate struct {
	LogoLight   *string
	LogoDark    *string
	LightUpload *Upload
	DarkUpload  *Upload
}

func sitePath(admin bool, name string) string {
	if admin {
		return "/admin/site/" + name
	}
	return "/public/site/" + name
}

// movingHeader loads the ticker settings, persisting the defaults on first read.
func (s *Service) movingHeader(ctx context.Context) domain.MovingHeader {
	s.docMu.Lock()
	defer s.docMu.Unlock()
	var h domain.MovingHeader
	if s.store.Get(ctx, domain.MovingHeaderKey, &h) {
		return h
	}
	h = domain.DefaultMovingHeader()
	s.store.Set(ctx, domain.MovingHeaderKey, h)
	return h
}

func (s *Service) GetMovingHeader(ctx context.Context, admin bool) response.Result[domain.MovingHeader] {
	return passthrough(ctx, s, s.mock(), fiber.MethodGet, sitePath(admin, "moving-header"), nil, func() response.Result[domain.MovingHeader] {
		return response.OK(s.movingHeader(ctx))
	})
}

// UpdateMovingHeader replaces the ticker settings. Zero font, duration and height
// fall back to their defaults.
func (s *Service) UpdateMovingHeader(ctx context.Context, h domain.MovingHeader) response.Result[domain.MovingHeader] {
	if h.Items == nil {
		h.Items = []domain.TickerItem{}
	}
	if h.FontConfig.FontFamily == "" {
		h.FontConfig = domain.DefaultFontConfig
	}
	if h.AnimationDuration <= 0 {
		h.AnimationDuration = 25
	}
	if h.HeightPx <= 0 {
		h.HeightPx = 60
	}
	return passthrough(ctx, s, s.mock(), fiber.MethodPut, "/admin/site/moving-header", h, func() response.Result[domain.MovingHeader] {
		s.docMu.Lock()
		defer s.docMu.Unlock()
		if err := s.save(ctx, domain.MovingHeaderKey, h); err != nil {
			return response.Fail[domain.MovingHeader](err)
		}
		return response.OK(h)
	})
}

// heroSlides loads the slides with blob URLs blanked, persisting the defaults
// when nothing usable is stored.
func (s *Service) heroSlides(ctx context.Context) []domain.HeroSlide {
	var slides []domain.HeroSlide
	if s.store.Get(ctx, domain.HeroSlidesKey, &slides) && len(slides) > 0 {
		for i := range slides {
			slides[i].URL = domain.StripBlobURL(slides[i].URL)
		}
		return slides
	}
	slides = domain.DefaultHeroSlides()
	s.store.Set(ctx, domain.HeroSlidesKey, slides)
	return slides
}

func (s *Service) GetHeroSlides(ctx context.Context, admin bool) response.Result[SlidesData] {
	return passthrough(ctx, s, s.mock(), fiber.MethodGet, sitePath(admin, "hero-slides"), nil, func() response.Result[SlidesData] {
		s.docMu.Lock()
		defer s.docMu.Unlock()
		return response.OK(SlidesData{Slides: s.heroSlides(ctx)})
	})
}

func (s *Service) saveSlides(ctx context.Context, slides []domain.HeroSlide) response.Result[SlidesData] {
	if err := s.save(ctx, domain.HeroSlidesKey, slides); err != nil {
		return response.Fail[SlidesData](err)
	}
	return response.OK(SlidesData{Slides: slides})
}

// AddHeroSlide appends an uploaded slide. durationSeconds below 1 means 5.
func (s *Service) AddHeroSlide(ctx context.Context, u Upload, durationSeconds int) response.Result[SlidesData] {
	if durationSeconds < 1 {
		durationSeconds = defaultSlideSeconds
	}
	return passthrough(ctx, s, s.mock(), fiber.MethodPost, "/admin/site/hero-slides", fiber.Map{"durationSeconds": durationSeconds}, func() response.Result[SlidesData] {
		img, err := DataURL(u)
		if err != nil {
			log.Error().Err(err).Str("filename", u.Filename).Msg("Failed to convert hero slide image")
			return response.Fail[SlidesData](domain.ErrInvalidImage)
		}
		s.docMu.Lock()
		defer s.docMu.Unlock()
		slide := domain.HeroSlide{
			ID:              "hero-" + strconv.FormatInt(s.clock.Now().UnixMilli(), 10),
			URL:             img,
			DurationSeconds: durationSeconds,
			DurationMs:      durationSeconds * 1000,
		}
		return s.saveSlides(ctx, append(s.heroSlides(ctx), slide))
	})
}

// UpdateHeroSlides replaces every slide, filling missing durations.
func (s *Service) UpdateHeroSlides(ctx context.Context, slides []domain.HeroSlide) response.Result[SlidesData] {
	return passthrough(ctx, s, s.mock(), fiber.MethodPut, "/admin/site/hero-slides", SlidesData{Slides: slides}, func() response.Result[SlidesData] {
		next := make([]domain.HeroSlide, 0, len(slides))
		for _, sl := range slides {
			next = append(next, domain.NormalizeSlide(sl))
		}
		s.docMu.Lock()
		defer s.docMu.Unlock()
		return s.saveSlides(ctx, next)
	})
}

func (s *Service) DeleteHeroSlide(ctx context.Context, id string) response.Result[SlidesData] {
	return passthrough(ctx, s, s.mock(), fiber.MethodDelete, "/admin/site/hero-slides/"+url.PathEscape(id), nil, func() response.Result[SlidesData] {
		s.docMu.Lock()
		defer s.docMu.Unlock()
		slides := s.heroSlides(ctx)
		next := make([]domain.HeroSlide, 0, len(slides))
		for _, sl := range slides {
			if sl.ID != id {
				next = append(next, sl)
			}
		}
		return s.saveSlides(ctx, next)
	})
}

func (s *Service) cta(ctx context.Context) domain.CTA {
	c := domain.DefaultCTA()
	s.store.Get(ctx, domain.CTAKey, &c)
	c.ImageURL = domain.StripBlobURL(c.ImageURL)
	return c
}

func (s *Service) GetCTA(ctx context.Context, admin bool) response.Result[CTAData] {
	return passthrough(ctx, s, s.mock(), fiber.MethodGet, sitePath(admin, "cta"), nil, func() response.Result[CTAData] {
		return response.OK(CTAData{CTA: s.cta(ctx)})
	})
}

func (s *Service) UpdateCTA(ctx context.Context, in CTAUpdate) response.Result[CTAData] {
	return passthrough(ctx, s, s.mock(), fiber.MethodPut, "/admin/site/cta", CTAData{CTA: in.Fields}, func() response.Result[CTAData] {
		s.docMu.Lock()
		defer s.docMu.Unlock()
		next := s.cta(ctx)
		f := in.Fields
		for dst, v := range map[*string]string{
			&next.ImageURL:   domain.StripBlobURL(f.ImageURL),
			&next.TitleFr:    f.TitleFr,
			&next.TitleAr:    f.TitleAr,
			&next.SubtitleFr: f.SubtitleFr,
			&next.SubtitleAr: f.SubtitleAr,
			&next.ButtonFr:   f.ButtonFr,
			&next.ButtonAr:   f.ButtonAr,
			&next.Link:       f.Link,
		} {
			if v != "" {
				*dst = v
			}
		}
		if in.Image != nil {
			img, err := DataURL(*in.Image)
			if err != nil {
				log.Error().Err(err).Msg("Failed to convert CTA image")
				return response.Fail[CTAData](domain.ErrInvalidImage)
			}
			next.ImageURL = img
		}
		if err := s.save(ctx, domain.CTAKey, next); err != nil {
			return response.Fail[CTAData](err)
		}
		return response.OK(CTAData{CTA: next})
	})
}

func (s *Service) footer(ctx context.Context) domain.Footer {
	f := domain.DefaultFooter()
	s.store.Get(ctx, domain.FooterKey, &f)
	return f
}

func (s *Service) GetFooter(ctx context.Context, admin bool) response.Result[FooterData] {
	return passthrough(ctx, s, s.mock(), fiber.MethodGet, sitePath(admin, "footer"), nil, func() response.Result[FooterData] {
		return response.OK(FooterData{Footer: s.footer(ctx)})
	})
}

// UpdateFooter merges the given fields over the current footer. Zero fields are kept.
func (s *Service) UpdateFooter(ctx context.Context, in domain.Footer) response.Result[FooterData] {
	return passthrough(ctx, s, s.mock(), fiber.MethodPut, "/admin/site/footer", FooterData{Footer: in}, func() response.Result[FooterData] {
		s.docMu.Lock()
		defer s.docMu.Unlock()
		next := s.footer(ctx)
		if in.AboutFr != "" {
			next.AboutFr = in.AboutFr
		}
		if in.AboutAr != "" {
			next.AboutAr = in.AboutAr
		}
		if in.CallCenters != nil {
			next.CallCenters = in.CallCenters
		}
		if in.Columns != nil {
			next.Columns = in.Columns
		}
		if err := s.save(ctx, domain.FooterKey, next); err != nil {
			return response.Fail[FooterData](err)
		}
		return response.OK(FooterData{Footer: next})
	})
}

func (s *Service) logo(ctx context.Context) domain.Logo {
	var l domain.Logo
	s.store.Get(ctx, domain.LogoKey, &l)
	l.LogoLight = domain.StripBlobURL(l.LogoLight)
	l.LogoDark = domain.StripBlobURL(l.LogoDark)
	return l
}

func (s *Service) GetLogo(ctx context.Context, admin bool) response.Result[LogoData] {
	return passthrough(ctx, s, s.mock(), fiber.MethodGet, sitePath(admin, "logo"), nil, func() response.Result[LogoData] {
		return response.OK(LogoData{Logo: s.logo(ctx)})
	})
}

func (s *Service) UpdateLogo(ctx context.Context, in LogoUpdate) response.Result[LogoData] {
	body := fiber.Map{"logoLight": in.LogoLight, "logoDark": in.LogoDark}
	return passthrough(ctx, s, s.mock(), fiber.MethodPut, "/admin/site/logo", body, func() response.Result[LogoData] {
		s.docMu.Lock()
		defer s.docMu.Unlock()
		next := s.logo(ctx)
		variants := []struct {
			dst    *string
			url    *string
			upload *Upload
		}{
			{&next.LogoLight, in.LogoLight, in.LightUpload},
			{&next.LogoDark, in.LogoDark, in.DarkUpload},
		}
		for _, v := range variants {
			switch {
			case v.upload != nil:
				img, err := DataURL(*v.upload)
				if err != nil {
					return response.Fail[LogoData](domain.ErrInvalidImage)
				}
				*v.dst = img
			case v.url != nil:
				*v.dst = domain.StripBlobURL(*v.url)
			}
		}
		if err := s.save(ctx, domain.LogoKey, next); err != nil {
			return response.Fail[LogoData](err)
		}
		return response.OK(LogoData{Logo: next})
	})
}
