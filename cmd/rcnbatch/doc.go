// Command rcnbatch runs a train and test experiment of the edge template
// classifier over a class partitioned image directory:
//
//	data_dir/training/<class>/<image>
//	data_dir/testing/<class>/<image>
//
// Training runs in batches, each checkpointed under checkpoint_dir, so an
// interrupted run continues with --resume or --start_batch. The trained model
// is written to model_file and evaluated on the test images. With
// --test_only an existing model is evaluated, with --test_dir it is
// evaluated on any class partitioned directory.
//
// Every option can also be given in a YAML file passed with --config;
// explicit flags win over the file.
package main
