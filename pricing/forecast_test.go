package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGetDemandForecast_Fixed(t *testing.T) {
	want := []ForecastDay{
		{"Mon", 45}, {"Tue", 30}, {"Wed", 65}, {"Thu", 50},
		{"Fri", 85}, {"Sat", 95}, {"Sun", 80},
	}
	first := GetDemandForecast()
	if diff := cmp.Diff(want, first); diff != "" {
		t.Fatalf("forecast mismatch (-want +got):\n%s", diff)
	}

	// Mutating one result must not leak into the next call.
	first[0].DemandPercent = 0
	second := GetDemandForecast()
	if diff := cmp.Diff(want, second); diff != "" {
		t.Fatalf("second call differs (-want +got):\n%s", diff)
	}
}

func TestStaticForecast(t *testing.T) {
	ctx := context.Background()

	days, err := StaticForecast{}.Forecast(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(GetDemandForecast(), days); diff != "" {
		t.Errorf("zero value should serve default (-want +got):\n%s", diff)
	}

	custom := []ForecastDay{
		{"Mon", 10}, {"Tue", 20}, {"Wed", 30}, {"Thu", 40},
		{"Fri", 50}, {"Sat", 60}, {"Sun", 70},
	}
	days, err = StaticForecast{Days: custom}.Forecast(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(custom, days); diff != "" {
		t.Errorf("custom forecast mismatch (-want +got):\n%s", diff)
	}

	_, err = StaticForecast{Days: custom[:3]}.Forecast(ctx)
	if !errors.Is(err, ErrInvalidForecast) {
		t.Errorf("expected ErrInvalidForecast for short forecast, got %v", err)
	}
}

func TestValidateForecast(t *testing.T) {
	good := GetDemandForecast()
	if err := ValidateForecast(good); err != nil {
		t.Fatalf("default forecast should validate: %v", err)
	}

	bad := GetDemandForecast()
	bad[4].DemandPercent = 101
	if err := ValidateForecast(bad); !errors.Is(err, ErrInvalidForecast) {
		t.Errorf("expected ErrInvalidForecast for 101%%, got %v", err)
	}

	unlabelled := GetDemandForecast()
	unlabelled[2].Label = ""
	if err := ValidateForecast(unlabelled); !errors.Is(err, ErrInvalidForecast) {
		t.Errorf("expected ErrInvalidForecast for empty label, got %v", err)
	}
}

type failingProvider struct{}

func (failingProvider) Forecast(context.Context) ([]ForecastDay, error) {
	return nil, errors.New("db down")
}

type badProvider struct{}

func (badProvider) Forecast(context.Context) ([]ForecastDay, error) {
	return []ForecastDay{{"Mon", 200}}, nil
}

func TestForecastOrDefault(t *testing.T) {
	ctx := context.Background()
	def := GetDemandForecast()

	for name, p := range map[string]ForecastProvider{
		"nil":     nil,
		"failing": failingProvider{},
		"bad":     badProvider{},
		"empty":   StaticForecast{Days: []ForecastDay{}},
	} {
		t.Run(name, func(t *testing.T) {
			if diff := cmp.Diff(def, ForecastOrDefault(ctx, p)); diff != "" {
				t.Errorf("expected default forecast (-want +got):\n%s", diff)
			}
		})
	}
}
