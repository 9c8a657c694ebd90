package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"link-tracker/internal/config"
	"link-tracker/internal/models"
)

// GeoProvider один внешний геолокационный сервис.
// Ответы провайдеров имеют разные формы, поэтому каждый несёт свой
// адаптер, приводящий JSON к каноническому GeoLocation.
type GeoProvider struct {
	Name    string
	Timeout time.Duration
	// BuildURL строит URL запроса; пустой ip означает автоопределение
	// по адресу источника запроса
	BuildURL func(ip string) string
	// Parse разбирает тело успешного ответа; ошибка означает отказ
	// провайдера (в том числе его собственный флаг неуспеха)
	Parse func(body []byte) (models.GeoLocation, error)
}

// GeoResolver перебирает провайдеров по порядку до первого, давшего
// непустую страну. Контракт: никогда не возвращает ошибку наружу -
// при отказе всей цепочки результатом будет нулевой GeoLocation.
type GeoResolver struct {
	providers []GeoProvider
	client    *http.Client
	logger    *zap.Logger
}

// NewGeoResolver собирает цепочку провайдеров по списку имён из конфига.
// Неизвестные имена пропускаются с предупреждением.
func NewGeoResolver(cfg config.GeoConfig, logger *zap.Logger) *GeoResolver {
	known := map[string]GeoProvider{
		"ip-api":   ipAPIProvider(cfg.Timeout),
		"ipapi.co": ipapiCoProvider(cfg.Timeout),
	}

	var providers []GeoProvider
	for _, name := range cfg.Providers {
		p, ok := known[name]
		if !ok {
			logger.Warn("Unknown geo provider in config, skipping", zap.String("provider", name))
			continue
		}
		providers = append(providers, p)
	}

	return &GeoResolver{
		providers: providers,
		client:    &http.Client{},
		logger:    logger,
	}
}

// NewGeoResolverWithProviders конструктор с явной цепочкой (для тестов)
func NewGeoResolverWithProviders(providers []GeoProvider, logger *zap.Logger) *GeoResolver {
	return &GeoResolver{
		providers: providers,
		client:    &http.Client{},
		logger:    logger,
	}
}

// Resolve пытается определить {country, city, ip} для адреса клиента.
// Каждый провайдер получает собственное окно таймаута, не общий бюджет;
// первый успех возвращается немедленно. Loopback и пустой адрес
// передаются провайдеру как "определи по источнику запроса".
func (g *GeoResolver) Resolve(ctx context.Context, ip string) models.GeoLocation {
	if isLocalAddr(ip) {
		ip = ""
	}

	for _, p := range g.providers {
		loc, err := g.query(ctx, p, ip)
		if err != nil {
			g.logger.Debug("Geo provider failed",
				zap.String("provider", p.Name),
				zap.Error(err),
			)
			continue
		}
		if loc.Country != "" {
			return loc
		}
	}

	return models.GeoLocation{}
}

func (g *GeoResolver) query(ctx context.Context, p GeoProvider, ip string) (models.GeoLocation, error) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BuildURL(ip), nil)
	if err != nil {
		return models.GeoLocation{}, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return models.GeoLocation{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.GeoLocation{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.GeoLocation{}, err
	}

	return p.Parse(body)
}

// isLocalAddr проверяет loopback-сентинелы, для которых провайдер должен
// определять адрес сам
func isLocalAddr(ip string) bool {
	return ip == "" || ip == "::1" || ip == "127.0.0.1" || ip == "localhost"
}

// ipAPIProvider адаптер для ip-api.com.
// Ответ: {"status":"success","country":"...","city":"...","query":"<ip>"};
// status != "success" считается отказом провайдера.
func ipAPIProvider(timeout time.Duration) GeoProvider {
	return GeoProvider{
		Name:    "ip-api",
		Timeout: timeout,
		BuildURL: func(ip string) string {
			if ip == "" {
				return "http://ip-api.com/json"
			}
			return "http://ip-api.com/json/" + ip
		},
		Parse: func(body []byte) (models.GeoLocation, error) {
			var payload struct {
				Status  string `json:"status"`
				Message string `json:"message"`
				Country string `json:"country"`
				City    string `json:"city"`
				Query   string `json:"query"`
			}
			if err := json.Unmarshal(body, &payload); err != nil {
				return models.GeoLocation{}, err
			}
			if payload.Status != "success" {
				return models.GeoLocation{}, errors.New("provider status: " + payload.Message)
			}
			return models.GeoLocation{
				Country: payload.Country,
				City:    payload.City,
				IP:      payload.Query,
			}, nil
		},
	}
}

// ipapiCoProvider адаптер для ipapi.co.
// Страна лежит в country_name, а не country.
func ipapiCoProvider(timeout time.Duration) GeoProvider {
	return GeoProvider{
		Name:    "ipapi.co",
		Timeout: timeout,
		BuildURL: func(ip string) string {
			if ip == "" {
				return "https://ipapi.co/json/"
			}
			return "https://ipapi.co/" + ip + "/json/"
		},
		Parse: func(body []byte) (models.GeoLocation, error) {
			var payload struct {
				CountryName string `json:"country_name"`
				City        string `json:"city"`
				IP          string `json:"ip"`
			}
			if err := json.Unmarshal(body, &payload); err != nil {
				return models.GeoLocation{}, err
			}
			return models.GeoLocation{
				Country: payload.CountryName,
				City:    payload.City,
				IP:      payload.IP,
			}, nil
		},
	}
}
