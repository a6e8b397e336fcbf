package store

// DefaultModelType is used by the backend when no model type is sent
const DefaultModelType = "best_model"

// ModelType describes one trained model the backend can predict with
type ModelType struct {
	Name        string `json:"name" yaml:"name"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description" yaml:"description"`
}

// ModelTypes lists the trained models, best model first
var ModelTypes = []ModelType{
	{
		Name:        DefaultModelType,
		Label:       "Best Model",
		Description: "The best model is a RandomForest-based model that has been optimized for band gap prediction.",
	},
	{
		Name:        "RandomForest",
		Label:       "RandomForest",
		Description: "Random Forest is an ensemble learning method that operates by constructing multiple decision trees during training.",
	},
	{
		Name:        "GradientBoosting",
		Label:       "GradientBoosting",
		Description: "Gradient Boosting is a machine learning technique that builds an ensemble of decision trees in a stage-wise fashion.",
	},
	{
		Name:        "XGBoost",
		Label:       "XGBoost",
		Description: "XGBoost is an optimized distributed gradient boosting library designed to be highly efficient, flexible and portable.",
	},
}

// LookupModelType finds a model type by name
func LookupModelType(name string) (ModelType, bool) {
	for _, model := range ModelTypes {
		if model.Name == name {
			return model, true
		}
	}
	return ModelType{}, false
}
