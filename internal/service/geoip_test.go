package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"link-tracker/internal/models"
	"link-tracker/internal/service"
)

// testProvider провайдер, указывающий на httptest сервер
func testProvider(name, baseURL string, timeout time.Duration) service.GeoProvider {
	return service.GeoProvider{
		Name:    name,
		Timeout: timeout,
		BuildURL: func(ip string) string {
			if ip == "" {
				return baseURL + "/json"
			}
			return baseURL + "/json/" + ip
		},
		Parse: func(body []byte) (models.GeoLocation, error) {
			var payload struct {
				Status  string `json:"status"`
				Country string `json:"country"`
				City    string `json:"city"`
				Query   string `json:"query"`
			}
			if err := json.Unmarshal(body, &payload); err != nil {
				return models.GeoLocation{}, err
			}
			if payload.Status != "success" {
				return models.GeoLocation{}, errors.New("provider status fail")
			}
			return models.GeoLocation{Country: payload.Country, City: payload.City, IP: payload.Query}, nil
		},
	}
}

func geoResponse(country, city, ip string) string {
	return `{"status":"success","country":"` + country + `","city":"` + city + `","query":"` + ip + `"}`
}

// TestGeoResolver_FirstProviderWins первый успешный провайдер выигрывает,
// второй не опрашивается
func TestGeoResolver_FirstProviderWins(t *testing.T) {
	secondCalled := false

	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geoResponse("Germany", "Berlin", "1.2.3.4")))
	}))
	defer first.Close()

	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secondCalled = true
		w.Write([]byte(geoResponse("France", "Paris", "1.2.3.4")))
	}))
	defer second.Close()

	logger, _ := zap.NewDevelopment()
	resolver := service.NewGeoResolverWithProviders([]service.GeoProvider{
		testProvider("first", first.URL, time.Second),
		testProvider("second", second.URL, time.Second),
	}, logger)

	loc := resolver.Resolve(context.Background(), "1.2.3.4")

	assert.Equal(t, "Germany", loc.Country)
	assert.Equal(t, "Berlin", loc.City)
	assert.Equal(t, "1.2.3.4", loc.IP)
	assert.False(t, secondCalled, "второй провайдер не должен опрашиваться")
}

// TestGeoResolver_Fallback отказ первого провайдера переключает на второго
func TestGeoResolver_Fallback(t *testing.T) {
	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer first.Close()

	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geoResponse("France", "Paris", "5.6.7.8")))
	}))
	defer second.Close()

	logger, _ := zap.NewDevelopment()
	resolver := service.NewGeoResolverWithProviders([]service.GeoProvider{
		testProvider("first", first.URL, time.Second),
		testProvider("second", second.URL, time.Second),
	}, logger)

	loc := resolver.Resolve(context.Background(), "5.6.7.8")

	assert.Equal(t, "France", loc.Country)
	assert.Equal(t, "Paris", loc.City)
}

// TestGeoResolver_TimeoutBounded зависший провайдер отрезается своим
// таймаутом, цепочка переходит к следующему
func TestGeoResolver_TimeoutBounded(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		w.Write([]byte(geoResponse("Nowhere", "Nowhere", "0.0.0.0")))
	}))
	defer slow.Close()

	fast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geoResponse("France", "Lyon", "5.6.7.8")))
	}))
	defer fast.Close()

	logger, _ := zap.NewDevelopment()
	resolver := service.NewGeoResolverWithProviders([]service.GeoProvider{
		testProvider("slow", slow.URL, 100*time.Millisecond),
		testProvider("fast", fast.URL, time.Second),
	}, logger)

	started := time.Now()
	loc := resolver.Resolve(context.Background(), "5.6.7.8")
	elapsed := time.Since(started)

	assert.Equal(t, "France", loc.Country)
	// Латентность ограничена таймаутом первого провайдера, а не его
	// реальным временем ответа
	assert.Less(t, elapsed, time.Second)
}

// TestGeoResolver_AllFail отказ всей цепочки даёт нулевой результат, не ошибку
func TestGeoResolver_AllFail(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"fail","message":"private range"}`))
	}))
	defer broken.Close()

	logger, _ := zap.NewDevelopment()
	resolver := service.NewGeoResolverWithProviders([]service.GeoProvider{
		testProvider("a", broken.URL, time.Second),
		testProvider("b", broken.URL, time.Second),
	}, logger)

	loc := resolver.Resolve(context.Background(), "10.0.0.1")

	assert.Equal(t, models.GeoLocation{}, loc)
}

// TestGeoResolver_LocalAddr loopback-адреса запрашиваются без IP в URL:
// провайдер определяет адрес по источнику запроса
func TestGeoResolver_LocalAddr(t *testing.T) {
	var requestedPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		w.Write([]byte(geoResponse("Germany", "Berlin", "9.9.9.9")))
	}))
	defer srv.Close()

	logger, _ := zap.NewDevelopment()
	resolver := service.NewGeoResolverWithProviders([]service.GeoProvider{
		testProvider("srv", srv.URL, time.Second),
	}, logger)

	for _, ip := range []string{"", "127.0.0.1", "::1", "localhost"} {
		loc := resolver.Resolve(context.Background(), ip)
		assert.Equal(t, "/json", requestedPath, "ip: %q", ip)
		// Реальный адрес берётся из ответа провайдера
		assert.Equal(t, "9.9.9.9", loc.IP)
	}
}

// TestGeoResolver_NoProviders пустая цепочка даёт нулевой результат
func TestGeoResolver_NoProviders(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	resolver := service.NewGeoResolverWithProviders(nil, logger)

	loc := resolver.Resolve(context.Background(), "1.2.3.4")
	assert.Equal(t, models.GeoLocation{}, loc)
}
