package scifio

import (
	"github.com/ngladitz/scifio/internal/types"
)

// The metadata model lives in internal/types and is shared by every format
// implementation. These aliases are the public face of that model.

// Metadata describes a parsed dataset: its images plus the raw key/value
// pairs the format declared.
type Metadata = types.Metadata

// ImageMetadata describes the pixel layout of one image (series) within a
// dataset.
type ImageMetadata = types.ImageMetadata

// Axis is one dimension of an image: its semantic type and its length.
type Axis = types.Axis

// ColorTable maps indexed pixel values to RGB components.
type ColorTable = types.ColorTable

// Plane is one decoded 2D section of an image. Planes are transient: the
// reader keeps no reference once a plane is returned, so the caller owns
// the bytes.
type Plane = types.Plane
