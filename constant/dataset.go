package constant

// Dataset split
const (
	// ValidationPortion is the probability a sample is routed to the validation/test partition
	ValidationPortion = 0.05
)

// TFRecord
const (
	TFRecordExtension = ".tfrecord"
	TFRecordMaskDelta = 0xa282ead8
	ImageFormatJPEG   = "jpeg"
)

// COCO layout
const (
	CocoTrainImagesDir  = "train_images"
	CocoValImagesDir    = "val_images"
	CocoAnnotationsDir  = "annotations"
	CocoTrainJSON       = "instances_train.json"
	CocoValJSON         = "instances_val.json"
	CocoSuperCategory   = "element"
	CocoDatasetVersion  = "1.0"
	CocoLicenseName     = "MIT License"
	CocoDefaultRootName = "coco"
)

// Darknet layout
const (
	DarknetObjDir          = "obj"
	DarknetClassNamesFile  = "class_names.txt"
	DarknetDescriptorFile  = "dataset_descriptor.txt"
	DarknetTrainManifest   = "train_manifest.txt"
	DarknetTestManifest    = "test_manifest.txt"
	DarknetBackupLine      = "backup = backup/"
	DarknetDefaultRootName = "data"
)
