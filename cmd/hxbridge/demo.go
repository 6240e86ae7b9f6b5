package main

import (
	"context"
	"fmt"

	"github.com/pthm/hxbridge"
	"github.com/pthm/hxbridge/widgets"
)

const allCategories = "all"

// inventory seeds the demo data source.
func inventory() *widgets.MemorySource {
	return widgets.NewMemorySource("sku",
		hxbridge.Record{"sku": "F-001", "name": "Apple", "category": "fruit", "stock": 42},
		hxbridge.Record{"sku": "F-002", "name": "Pear", "category": "fruit", "stock": 7},
		hxbridge.Record{"sku": "V-001", "name": "Leek", "category": "vegetable", "stock": 13},
		hxbridge.Record{"sku": "V-002", "name": "Kale", "category": "vegetable", "stock": 0},
	)
}

// demoSetup builds the panel served by the host command: a category
// selector filtering an inventory table, and a refresh button.
func demoSetup(src hxbridge.DataSource) func(ctx context.Context, p *hxbridge.Panel) error {
	return func(ctx context.Context, p *hxbridge.Panel) error {
		category, err := widgets.NewSelector("category", "Category", []widgets.Option{
			{Value: allCategories, Label: "All"},
			{Value: "fruit", Label: "Fruit"},
			{Value: "vegetable", Label: "Vegetables"},
		}, hxbridge.WithRegion(hxbridge.RegionControl))
		if err != nil {
			return err
		}
		table, err := widgets.NewTable("inventory", []widgets.Column{
			{Key: "sku", Label: "SKU"},
			{Key: "name", Label: "Name"},
			{Key: "stock", Label: "Stock"},
		})
		if err != nil {
			return err
		}
		refresh, err := widgets.NewButton("refresh", "Refresh")
		if err != nil {
			return err
		}
		if err := p.Add(category, table, refresh); err != nil {
			return err
		}

		// Load failures already reach the table as component errors.
		load := func(ctx context.Context) error {
			return table.Load(ctx, src, filterFor(category.Selected()))
		}
		unavailable := hxbridge.OK().Flash(hxbridge.FlashWarning, "Inventory unavailable")

		p.On("category", widgets.ActionSelectionChanged, category.Handler(func(ctx context.Context, value string) hxbridge.Result {
			if err := load(ctx); err != nil {
				return unavailable
			}
			return hxbridge.OK()
		}))
		p.On("refresh", widgets.ActionClicked, func(ctx context.Context, _ hxbridge.Message) hxbridge.Result {
			if err := load(ctx); err != nil {
				return unavailable
			}
			return hxbridge.OK().Flash(hxbridge.FlashInfo, fmt.Sprintf("%d items", len(table.State().Rows)))
		})
		p.On("inventory", widgets.ActionRowSelected, func(ctx context.Context, msg hxbridge.Message) hxbridge.Result {
			var data struct {
				Index int `json:"index"`
			}
			if err := msg.Decode(&data); err != nil {
				return hxbridge.Err(err)
			}
			rows := table.State().Rows
			if data.Index < 0 || data.Index >= len(rows) {
				return hxbridge.Err(fmt.Errorf("row %d out of range", data.Index))
			}
			return hxbridge.OK().Flash(hxbridge.FlashInfo, fmt.Sprintf("selected %v", rows[data.Index]["name"]))
		})

		return load(ctx)
	}
}

func filterFor(category string) map[string]string {
	if category == allCategories {
		return nil
	}
	return map[string]string{"category": category}
}
