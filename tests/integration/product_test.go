//go:build integration

package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestListProducts(t *testing.T) {
	resp := doGet(t, "/api/products/")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[[]productResponse](t, resp)
	if len(products) != 6 {
		t.Fatalf("expected 6 products, got %d", len(products))
	}

	byID := make(map[string]productResponse, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	burger, ok := byID["p-burger-classic"]
	if !ok {
		t.Fatal("p-burger-classic not in listing")
	}
	if burger.Name != "Classic Burger" {
		t.Errorf("name: got %q", burger.Name)
	}
	if burger.Price != 299.00 {
		t.Errorf("price: got %v, want 299.00", burger.Price)
	}
	if !strings.HasSuffix(burger.Image, "/media/burger-classic.jpg") {
		t.Errorf("image: got %q", burger.Image)
	}
}

func TestListBanners(t *testing.T) {
	resp := doGet(t, "/api/banners/")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	banners := decodeJSON[[]map[string]any](t, resp)
	if len(banners) == 0 {
		t.Fatal("expected at least one banner")
	}
}
