package store

// SaveGalleryImage prepends a capture so the most recent photo is
// always first.
func (s *Store) SaveGalleryImage(img GalleryImage) error {
	mu := s.lock(keyGallery)
	mu.Lock()
	defer mu.Unlock()

	images, err := readSlice[GalleryImage](s, keyGallery)
	if err != nil {
		return err
	}
	return writeSlice(s, keyGallery, append([]GalleryImage{img}, images...))
}

// Gallery returns all captures, most-recent-first.
func (s *Store) Gallery() ([]GalleryImage, error) {
	return readSlice[GalleryImage](s, keyGallery)
}

// DeleteGalleryImage removes a capture. Unknown ids are a no-op.
func (s *Store) DeleteGalleryImage(id string) error {
	mu := s.lock(keyGallery)
	mu.Lock()
	defer mu.Unlock()

	images, err := readSlice[GalleryImage](s, keyGallery)
	if err != nil {
		return err
	}
	kept := images[:0]
	for _, img := range images {
		if img.ID != id {
			kept = append(kept, img)
		}
	}
	if len(kept) == len(images) {
		return nil
	}
	return writeSlice(s, keyGallery, kept)
}
