package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoundingBoxUnmarshalArrayForm(t *testing.T) {
	var b BoundingBox
	require.NoError(t, json.Unmarshal([]byte(`[1,2,3,4]`), &b))
	require.Equal(t, BoundingBox{XMin: 1, YMin: 2, XMax: 3, YMax: 4}, b)
}

func TestBoundingBoxUnmarshalObjectForm(t *testing.T) {
	var b BoundingBox
	require.NoError(t, json.Unmarshal([]byte(`{"x_min":1,"y_min":2,"x_max":3,"y_max":4}`), &b))
	require.Equal(t, BoundingBox{XMin: 1, YMin: 2, XMax: 3, YMax: 4}, b)
}

func TestBoundingBoxValidate(t *testing.T) {
	require.NoError(t, BoundingBox{XMin: 0, YMin: 0, XMax: 10, YMax: 10}.Validate())
	require.Error(t, BoundingBox{XMin: 10, YMin: 0, XMax: 5, YMax: 10}.Validate())
	require.Error(t, BoundingBox{XMin: -1, YMin: 0, XMax: 5, YMax: 10}.Validate())
}

func TestFruitDetectionsValidateRejectsDuplicateID(t *testing.T) {
	fd := FruitDetections{
		ImageID: "img-1",
		Fruits: []FruitDetection{
			{FruitID: "f1", FruitClass: "apple", Confidence: 0.9, BBox: BoundingBox{XMax: 10, YMax: 10}},
			{FruitID: "f1", FruitClass: "apple", Confidence: 0.8, BBox: BoundingBox{XMax: 10, YMax: 10}},
		},
	}
	require.Error(t, fd.Validate())
}

func TestCameraCaptureResponseResolvedLocationPrefersPath(t *testing.T) {
	c := CameraCaptureResponse{ImageID: "i1", ImagePath: "/a.jpg", ImageURL: "http://x/a.jpg"}
	loc, err := c.ResolvedLocation()
	require.NoError(t, err)
	require.Equal(t, "/a.jpg", loc)
}
