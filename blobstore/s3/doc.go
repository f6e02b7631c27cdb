// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("trees/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	err = persistence.Save(ctx, store, "points.bt", structure)
//
// # Features
//
//   - Range reads for chunked, rate-limited loading
//   - Multipart uploads for large trees
//   - CRC32C integrity validation on single-part uploads
//   - Automatic pagination for listing
package s3
