// Command mnist2dir unpacks the gzipped MNIST IDX files into the class
// partitioned image directory rcnbatch trains and tests on.
package main
