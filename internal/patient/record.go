// Package patient defines the clinical record accepted by the prediction API
// and its mapping onto the feature vector the scored model consumes.
//
// The pipeline the model was fit with selects columns by position, so the
// vector layout produced here must never drift from FeatureNames.
package patient

import "fmt"

// FeatureNames is the canonical column order the pipeline was trained with.
// Vector emits values in exactly this order.
var FeatureNames = []string{
	"age", "sex", "cp", "trestbps", "chol", "fbs", "restecg",
	"thalach", "exang", "oldpeak", "slope", "ca", "thal",
}

// NumFeatures is the length of every feature vector.
const NumFeatures = 13

// Record is one prediction request. All fields are required; pointers
// distinguish a missing field from a legitimate zero.
type Record struct {
	Age      *float64 `json:"age" binding:"required,gt=0"`
	Sex      *int     `json:"sex" binding:"required,oneof=0 1"`
	Cp       *int     `json:"cp" binding:"required,oneof=0 1 2 3"`
	Trestbps *float64 `json:"trestbps" binding:"required,gt=0"`
	Chol     *float64 `json:"chol" binding:"required,gt=0"`
	Fbs      *int     `json:"fbs" binding:"required,oneof=0 1"`
	Restecg  *int     `json:"restecg" binding:"required,oneof=0 1 2"`
	Thalach  *float64 `json:"thalach" binding:"required,gt=0"`
	Exang    *int     `json:"exang" binding:"required,oneof=0 1"`
	Oldpeak  *float64 `json:"oldpeak" binding:"required,gte=0"`
	Slope    *int     `json:"slope" binding:"required,oneof=0 1 2"`
	Ca       *float64 `json:"ca" binding:"required,gte=0,lte=4"`
	Thal     *int     `json:"thal" binding:"required,oneof=0 1 2 3"`
}

// Validate checks presence and domain of every field. It repeats what the
// HTTP binding tags enforce so non-HTTP callers get the same guarantees,
// and it covers the one rule tags cannot express: ca must be a whole value.
func (r *Record) Validate() error {
	if r.Age == nil {
		return fmt.Errorf("age is required")
	}
	if *r.Age <= 0 {
		return fmt.Errorf("age must be positive, got %g", *r.Age)
	}
	if err := intInSet("sex", r.Sex, 1); err != nil {
		return err
	}
	if err := intInSet("cp", r.Cp, 3); err != nil {
		return err
	}
	if r.Trestbps == nil {
		return fmt.Errorf("trestbps is required")
	}
	if *r.Trestbps <= 0 {
		return fmt.Errorf("trestbps must be positive, got %g", *r.Trestbps)
	}
	if r.Chol == nil {
		return fmt.Errorf("chol is required")
	}
	if *r.Chol <= 0 {
		return fmt.Errorf("chol must be positive, got %g", *r.Chol)
	}
	if err := intInSet("fbs", r.Fbs, 1); err != nil {
		return err
	}
	if err := intInSet("restecg", r.Restecg, 2); err != nil {
		return err
	}
	if r.Thalach == nil {
		return fmt.Errorf("thalach is required")
	}
	if *r.Thalach <= 0 {
		return fmt.Errorf("thalach must be positive, got %g", *r.Thalach)
	}
	if err := intInSet("exang", r.Exang, 1); err != nil {
		return err
	}
	if r.Oldpeak == nil {
		return fmt.Errorf("oldpeak is required")
	}
	if *r.Oldpeak < 0 {
		return fmt.Errorf("oldpeak must not be negative, got %g", *r.Oldpeak)
	}
	if err := intInSet("slope", r.Slope, 2); err != nil {
		return err
	}
	if r.Ca == nil {
		return fmt.Errorf("ca is required")
	}
	if *r.Ca != float64(int(*r.Ca)) || *r.Ca < 0 || *r.Ca > 4 {
		return fmt.Errorf("ca must be one of 0, 1, 2, 3, 4, got %g", *r.Ca)
	}
	if err := intInSet("thal", r.Thal, 3); err != nil {
		return err
	}
	return nil
}

// Vector builds the ordered feature vector for the scored model. The order
// matches FeatureNames regardless of how the record was populated. Vector
// re-validates the record; callers reaching it with an invalid record have
// broken the boundary contract and get the violation back as an error.
func (r *Record) Vector() ([]float64, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return []float64{
		*r.Age,
		float64(*r.Sex),
		float64(*r.Cp),
		*r.Trestbps,
		*r.Chol,
		float64(*r.Fbs),
		float64(*r.Restecg),
		*r.Thalach,
		float64(*r.Exang),
		*r.Oldpeak,
		float64(*r.Slope),
		*r.Ca,
		float64(*r.Thal),
	}, nil
}

func intInSet(name string, v *int, max int) error {
	if v == nil {
		return fmt.Errorf("%s is required", name)
	}
	if *v < 0 || *v > max {
		return fmt.Errorf("%s must be between 0 and %d, got %d", name, max, *v)
	}
	return nil
}
