package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
)

const laporanCollection = "laporans"

type LaporanRepo struct {
	pgDB    *gorm.DB
	mongoDB *mongo.Database
}

func NewLaporanRepo(pgDB *gorm.DB, mongoDB *mongo.Database) *LaporanRepo {
	return &LaporanRepo{pgDB: pgDB, mongoDB: mongoDB}
}

func (r *LaporanRepo) coll() *mongo.Collection {
	return r.mongoDB.Collection(laporanCollection)
}

func (r *LaporanRepo) expanded(ctx context.Context) *gorm.DB {
	return r.pgDB.WithContext(ctx).
		Preload("Bidang").
		Preload("Kelompok.Ketua.Prodi").
		Preload("Kelompok.DPL")
}

func (r *LaporanRepo) Create(ctx context.Context, l *model.Laporan) error {
	now := time.Now()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.DokumenPendukung == nil {
		l.DokumenPendukung = []model.Attachment{}
	}
	if l.MahasiswaTerlibat == nil {
		l.MahasiswaTerlibat = []string{}
	}
	l.CreatedAt, l.UpdatedAt = now, now

	doc := toMongo(*l)
	doc.CreatedAt, doc.UpdatedAt = now, now

	res, err := r.coll().InsertOne(ctx, doc)
	if err != nil {
		return errors.Wrap(err, "insert laporan document")
	}
	oid := res.InsertedID.(primitive.ObjectID)
	l.MongoID = oid.Hex()

	ref := toReference(*l)
	if err := r.pgDB.WithContext(ctx).Omit("Kelompok", "Bidang").Create(&ref).Error; err != nil {
		// context may already be cancelled; the cleanup must still run
		if _, delErr := r.coll().DeleteOne(context.Background(), bson.M{"_id": oid}); delErr != nil {
			return errors.Wrapf(err, "create laporan reference (orphan document %s left: %v)", oid.Hex(), delErr)
		}
		return errors.Wrap(err, "create laporan reference")
	}
	return nil
}

func (r *LaporanRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Laporan, error) {
	var ref model.LaporanReference
	if err := r.expanded(ctx).First(&ref, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}

	oid, err := primitive.ObjectIDFromHex(ref.MongoID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid laporan document id")
	}

	var doc model.LaporanMongo
	if err := r.coll().FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, errors.Wrap(notFound(err), "detail laporan hilang di document store")
	}

	l := merge(ref, doc)
	return &l, nil
}

func (r *LaporanRepo) FindAll(ctx context.Context, f model.LaporanFilter) ([]model.Laporan, error) {
	q := r.expanded(ctx).Model(&model.LaporanReference{})

	if f.KelompokID != nil {
		q = q.Where("laporan_references.kelompok_id = ?", *f.KelompokID)
	}
	if f.DPLID != nil {
		q = q.Where("laporan_references.kelompok_id IN (?)",
			r.pgDB.Model(&model.Kelompok{}).Select("id").Where("dpl_id = ?", *f.DPLID))
	}
	if len(f.Statuses) > 0 {
		q = q.Where("laporan_references.status IN ?", f.Statuses)
	}
	if f.Since != nil {
		q = q.Where("laporan_references.created_at >= ?", *f.Since)
	}

	var refs []model.LaporanReference
	if err := q.Order("laporan_references.updated_at DESC").Find(&refs).Error; err != nil {
		return nil, errors.Wrap(err, "find laporan references")
	}
	if len(refs) == 0 {
		return []model.Laporan{}, nil
	}

	oids := make([]primitive.ObjectID, 0, len(refs))
	for _, ref := range refs {
		if oid, err := primitive.ObjectIDFromHex(ref.MongoID); err == nil {
			oids = append(oids, oid)
		}
	}

	cursor, err := r.coll().Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, errors.Wrap(err, "find laporan documents")
	}
	defer cursor.Close(ctx)

	docs := make(map[string]model.LaporanMongo, len(refs))
	for cursor.Next(ctx) {
		var doc model.LaporanMongo
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode laporan document")
		}
		docs[doc.ID.Hex()] = doc
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate laporan documents")
	}

	results := make([]model.Laporan, 0, len(refs))
	for _, ref := range refs {
		doc, ok := docs[ref.MongoID]
		if !ok {
			continue
		}
		results = append(results, merge(ref, doc))
	}
	return results, nil
}

func (r *LaporanRepo) Update(ctx context.Context, l *model.Laporan) error {
	now := time.Now()
	l.UpdatedAt = now

	oid, err := primitive.ObjectIDFromHex(l.MongoID)
	if err != nil {
		return errors.Wrap(err, "invalid laporan document id")
	}

	res := r.pgDB.WithContext(ctx).Model(&model.LaporanReference{ID: l.ID}).
		Select("bidang_id", "status", "catatan_dpl", "reviewed_by", "reviewed_at", "updated_at").
		Updates(model.LaporanReference{
			BidangID:   l.BidangID,
			Status:     l.Status,
			CatatanDPL: l.CatatanDPL,
			ReviewedBy: l.ReviewedBy,
			ReviewedAt: l.ReviewedAt,
			UpdatedAt:  now,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "update laporan reference")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	doc := toMongo(*l)
	_, err = r.coll().UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"judulKegiatan":       doc.JudulKegiatan,
		"tanggalKegiatan":     doc.TanggalKegiatan,
		"tempatPelaksanaan":   doc.TempatPelaksanaan,
		"narasumber":          doc.Narasumber,
		"unsurTerlibat":       doc.UnsurTerlibat,
		"deskripsiKegiatan":   doc.DeskripsiKegiatan,
		"rencanaTindakLanjut": doc.RencanaTindakLanjut,
		"mahasiswaTerlibat":   doc.MahasiswaTerlibat,
		"dokumenPendukung":    doc.DokumenPendukung,
		"updatedAt":           now,
	}})
	return errors.Wrap(err, "update laporan document")
}

func (r *LaporanRepo) Delete(ctx context.Context, id uuid.UUID) error {
	var ref model.LaporanReference
	if err := r.pgDB.WithContext(ctx).First(&ref, "id = ?", id).Error; err != nil {
		return notFound(err)
	}
	if err := r.pgDB.WithContext(ctx).Delete(&ref).Error; err != nil {
		return errors.Wrap(err, "delete laporan reference")
	}
	if oid, err := primitive.ObjectIDFromHex(ref.MongoID); err == nil {
		if _, err := r.coll().DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
			return errors.Wrap(err, "delete laporan document")
		}
	}
	return nil
}

func toReference(l model.Laporan) model.LaporanReference {
	return model.LaporanReference{
		ID:         l.ID,
		KelompokID: l.KelompokID,
		BidangID:   l.BidangID,
		MongoID:    l.MongoID,
		Status:     l.Status,
		CatatanDPL: l.CatatanDPL,
		ReviewedBy: l.ReviewedBy,
		ReviewedAt: l.ReviewedAt,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

func toMongo(l model.Laporan) model.LaporanMongo {
	return model.LaporanMongo{
		KelompokID:          l.KelompokID.String(),
		JudulKegiatan:       l.JudulKegiatan,
		TanggalKegiatan:     l.TanggalKegiatan,
		TempatPelaksanaan:   l.TempatPelaksanaan,
		Narasumber:          l.Narasumber,
		UnsurTerlibat:       l.UnsurTerlibat,
		DeskripsiKegiatan:   l.DeskripsiKegiatan,
		RencanaTindakLanjut: l.RencanaTindakLanjut,
		MahasiswaTerlibat:   l.MahasiswaTerlibat,
		DokumenPendukung:    l.DokumenPendukung,
	}
}

func merge(ref model.LaporanReference, doc model.LaporanMongo) model.Laporan {
	docs := doc.DokumenPendukung
	if docs == nil {
		docs = []model.Attachment{}
	}
	terlibat := doc.MahasiswaTerlibat
	if terlibat == nil {
		terlibat = []string{}
	}
	return model.Laporan{
		ID:               ref.ID,
		KelompokID:       ref.KelompokID,
		BidangID:         ref.BidangID,
		MongoID:          ref.MongoID,
		Status:           ref.Status,
		CatatanDPL:       ref.CatatanDPL,
		ReviewedBy:       ref.ReviewedBy,
		ReviewedAt:       ref.ReviewedAt,
		DokumenPendukung: docs,
		CreatedAt:        ref.CreatedAt,
		UpdatedAt:        ref.UpdatedAt,
		Kelompok:         ref.Kelompok,
		Bidang:           ref.Bidang,
		LaporanContent: model.LaporanContent{
			JudulKegiatan:       doc.JudulKegiatan,
			TanggalKegiatan:     doc.TanggalKegiatan,
			TempatPelaksanaan:   doc.TempatPelaksanaan,
			Narasumber:          doc.Narasumber,
			UnsurTerlibat:       doc.UnsurTerlibat,
			DeskripsiKegiatan:   doc.DeskripsiKegiatan,
			RencanaTindakLanjut: doc.RencanaTindakLanjut,
			MahasiswaTerlibat:   terlibat,
		},
	}
}
