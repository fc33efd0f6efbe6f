package device

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ougirez/hvac-catalog/internal/domain"
	"github.com/ougirez/hvac-catalog/internal/domain/dto"
	"github.com/ougirez/hvac-catalog/internal/pkg/constants"
	"github.com/ougirez/hvac-catalog/internal/pkg/logger"
	"github.com/ougirez/hvac-catalog/internal/pkg/registry"
	"github.com/ougirez/hvac-catalog/internal/pkg/store"
)

type Store interface {
	store.DeviceStore
	store.ObservationStore
}

type Service struct {
	store Store
	reg   *registry.Registry
}

func NewDeviceService(st Store, reg *registry.Registry) *Service {
	return &Service{store: st, reg: reg}
}

// Get loads a device with its subtype attributes labelled by logical name.
// Heat pumps come with their observations.
func (s *Service) Get(ctx context.Context, id int64) (*dto.DeviceResponse, error) {
	var (
		device       *domain.Device
		observations []*domain.Observation
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		device, err = s.store.GetDevice(egCtx, id)
		if err != nil {
			return fmt.Errorf("GetDevice: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		observations, err = s.store.ListObservations(egCtx, id)
		if err != nil {
			return fmt.Errorf("ListObservations: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		logger.Errorf(ctx, "get device %d: %s", id, err.Error())
		return nil, err
	}

	resp := &dto.DeviceResponse{DeviceRecord: device.DeviceRecord, Attributes: []dto.Attribute{}}
	for _, def := range s.reg.Attributes(device.DeviceFamily) {
		resp.Attributes = append(resp.Attributes, dto.Attribute{
			Name:  def.Name,
			Label: def.Label,
			Value: device.Attributes[def.Attribute],
		})
	}
	if device.DeviceFamily == domain.KindHeatPump {
		resp.Observations = observations
	}
	return resp, nil
}

// Observations lists the operating points of a heat pump.
func (s *Service) Observations(ctx context.Context, id int64) ([]*domain.Observation, error) {
	device, err := s.store.GetDevice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetDevice: %w", err)
	}
	if device.DeviceFamily != domain.KindHeatPump {
		return nil, fmt.Errorf("%w: device %d is a %s", constants.ErrDBNotFound, id, device.DeviceFamily)
	}

	observations, err := s.store.ListObservations(ctx, id)
	if err != nil {
		logger.Errorf(ctx, "ListObservations: %s", err.Error())
		return nil, fmt.Errorf("ListObservations: %w", err)
	}
	return observations, nil
}
