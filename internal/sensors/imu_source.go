// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/motion_monitor/internal/imu"
	"github.com/relabs-tech/motion_monitor/internal/motion"
)

// accelRangeG maps the MPU9250 ACCEL_FS_SEL value to its full scale in g.
var accelRangeG = []float64{2, 4, 8, 16}

type accelSource struct {
	name       string
	imu        *mpu9250.MPU9250
	countsPerG float64
}

// NewAccelSource initializes an MPU9250 over SPI and returns a sample source
// reporting acceleration in g. accelRange is 0-3 (±2g ... ±16g).
func NewAccelSource(name, spiDev, csPin string, accelRange byte) (imu.SampleSource, error) {
	if int(accelRange) >= len(accelRangeG) {
		return nil, fmt.Errorf("%s IMU: accel range %d out of 0-3", name, accelRange)
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%s IMU: periph host init: %w", name, err)
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("%s IMU: CS pin %q not found", name, csPin)
	}

	tr, err := mpu9250.NewSpiTransport(spiDev, cs)
	if err != nil {
		return nil, fmt.Errorf("%s IMU: SPI transport (%s): %w", name, spiDev, err)
	}

	dev, err := mpu9250.New(*tr)
	if err != nil {
		return nil, fmt.Errorf("%s IMU: device creation: %w", name, err)
	}

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("%s IMU: initialization: %w", name, err)
	}

	if err := dev.SetAccelRange(accelRange); err != nil {
		return nil, fmt.Errorf("%s IMU: set accel range: %w", name, err)
	}
	fullScale := accelRangeG[accelRange]
	log.Printf("%s IMU: accelerometer range set to %d (±%gg)", name, accelRange, fullScale)

	return &accelSource{
		name:       name,
		imu:        dev,
		countsPerG: 32768 / fullScale,
	}, nil
}

// NextSample reads the three accelerometer axes.
func (s *accelSource) NextSample() (motion.Sample, error) {
	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return motion.Sample{}, fmt.Errorf("%s IMU accel X: %w", s.name, err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return motion.Sample{}, fmt.Errorf("%s IMU accel Y: %w", s.name, err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return motion.Sample{}, fmt.Errorf("%s IMU accel Z: %w", s.name, err)
	}
	return s.toG(ax, ay, az), nil
}

func (s *accelSource) toG(ax, ay, az int16) motion.Sample {
	return motion.Sample{
		X: float64(ax) / s.countsPerG,
		Y: float64(ay) / s.countsPerG,
		Z: float64(az) / s.countsPerG,
	}
}
