package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/shaiso/tweetsched/internal/domain"
	"github.com/shaiso/tweetsched/internal/scheduler"
)

// cohortsFile — формат файла когорт.
type cohortsFile struct {
	Cohorts []domain.Cohort `yaml:"cohorts"`
}

// LoadCohorts читает когорты из YAML файла.
func LoadCohorts(path string) ([]domain.Cohort, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cohorts file: %w", err)
	}
	return ParseCohorts(data)
}

// ParseCohorts разбирает YAML с когортами.
// Неизвестные поля — ошибка: опечатка в ключе не должна молча
// превращаться в значение по умолчанию.
func ParseCohorts(data []byte) ([]domain.Cohort, error) {
	var file cohortsFile

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse cohorts: %w", err)
	}

	return file.Cohorts, nil
}

// validateCohorts проверяет каждую когорту и уникальность имён.
func validateCohorts(cohorts []domain.Cohort) error {
	var errs []error
	seen := make(map[string]bool, len(cohorts))

	for i := range cohorts {
		cohort := &cohorts[i]

		if err := cohort.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[cohort.Name] {
			errs = append(errs, fmt.Errorf("cohort %s: duplicate name", cohort.Name))
		}
		seen[cohort.Name] = true

		if err := scheduler.ValidateCronExpr(cohort.CronExpr); err != nil {
			errs = append(errs, fmt.Errorf("cohort %s: %w", cohort.Name, err))
		}
	}

	return errors.Join(errs...)
}
