// Package model loads the pre-trained artifacts the predictor consumes.
//
// # Artifact format
//
// The offline training job exports its scikit-learn estimators as JSON so the
// service can evaluate them without a Python runtime:
//
//	plant_encoder.json       {"classes": ["MAINT_01", "PLANT_01", ...]}
//	fault_encoder.json       {"classes": ["Leak", "Motor Failure", ...]}
//	fault_classifier.json    forest, kind "classifier", 5 features
//	restoration_model.json   forest, kind "regressor", 7 features
//
// Encoder codes are the index of the label in classes, matching LabelEncoder.
//
// A forest is a list of trees, each a flat node array in pre-order with the
// root at index 0:
//
//	{"feature": 2, "threshold": 31.5, "left": 1, "right": 4}
//	{"left": -1, "right": -1, "value": [3, 0, 12, 1]}
//
// Internal nodes send x[feature] <= threshold to the left child. Leaves carry
// per-class sample counts (classifier) or a single mean target (regressor).
// Classifiers average the normalised leaf distributions over all trees and
// return the code of the most likely class; regressors average leaf values.
package model
